// Package wordmatch compares a target word with the word a recogniser heard
// in its place.
//
// Two signals are combined:
//
//  1. Double Metaphone codes. If any code of the heard word overlaps with any
//     code of the target, the two sound alike as long as their Jaro-Winkler
//     similarity also clears the phonetic threshold.
//
//  2. Jaro-Winkler similarity on the lower-cased strings. Without a phonetic
//     overlap the words only count as alike above the higher fuzzy threshold.
//
// The similarity score is reported either way so callers can show how close
// a mispronounced word came to being recognised.
package wordmatch

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for words whose
// metaphone codes overlap. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for words with no
// phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Compare returns the Jaro-Winkler similarity of target and heard and
// whether the two sound alike. Blank input on either side yields (0, false).
func (m *Matcher) Compare(target, heard string) (similarity float64, soundsAlike bool) {
	t := normalize(target)
	h := normalize(heard)
	if t == "" || h == "" {
		return 0, false
	}
	if t == h {
		return 1, true
	}

	similarity = matchr.JaroWinkler(t, h, false)
	if codesOverlap(codes(t), codes(h)) {
		return similarity, similarity >= m.phoneticThreshold
	}
	return similarity, similarity >= m.fuzzyThreshold
}

// normalize lower-cases s and drops everything but letters, digits and
// apostrophes, so "Now," compares equal to "now".
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r > 0x7f:
			return r
		}
		return -1
	}, s)
}

// codes returns the non-empty Double Metaphone codes of word.
func codes(word string) map[string]struct{} {
	out := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(word)
	if p != "" {
		out[p] = struct{}{}
	}
	if s != "" {
		out[s] = struct{}{}
	}
	return out
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
