// Package phoneme turns raw IPA (or ARPAbet) strings into classified phoneme
// sequences.
//
// Two pieces live here:
//
//   - [Inventory] is the data table of known symbols. It answers "is this
//     symbol a vowel, and which vowel class is it?" Every other package asks
//     the Inventory rather than keeping its own vowel list. The default table
//     is embedded YAML; other accents load from a file with [LoadInventory].
//
//   - [Normalizer] splits a raw string into symbols. It strips stress and
//     length markers, splits by longest match so that diphthongs ("aʊ") and
//     affricates ("tʃ") stay whole, converts ARPAbet tokens, and classifies
//     every symbol through the Inventory.
//
// Nothing in this package fails on bad input: unknown symbols become
// consonants and empty input becomes an empty [Sequence].
package phoneme

import "strings"

// VowelClass is the canonical grouping of a vowel symbol (e.g. "short_i",
// "schwa", "ow"). The empty class means "not a vowel".
type VowelClass string

// Token is a single normalized phoneme.
type Token struct {
	Symbol  string
	IsVowel bool
	Class   VowelClass
}

// Sequence is an ordered list of tokens. A token's index is its position.
type Sequence []Token

// Symbols returns the symbol of every token.
func (s Sequence) Symbols() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.Symbol
	}
	return out
}

// Vowels returns the vowel-only subsequence as symbols.
func (s Sequence) Vowels() []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		if t.IsVowel {
			out = append(out, t.Symbol)
		}
	}
	return out
}

// VowelCount returns the number of vowel tokens.
func (s Sequence) VowelCount() int {
	n := 0
	for _, t := range s {
		if t.IsVowel {
			n++
		}
	}
	return n
}

// String joins the symbols with single spaces.
func (s Sequence) String() string {
	return strings.Join(s.Symbols(), " ")
}
