package assess

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/MrWong99/vowelscore/internal/align"
	"github.com/MrWong99/vowelscore/internal/phoneme"
)

// DefaultFocusAreaLimit is the number of focus areas reported by default.
const DefaultFocusAreaLimit = 3

// Scores holds the aggregate figures of an assessment.
type Scores struct {
	// Overall is the share of expected phonemes, consonants included, that
	// were matched exactly.
	Overall float64

	// Vowel is the share of expected vowels produced correctly.
	Vowel float64

	TotalVowels   int
	CorrectVowels int
	FocusAreas    []string
}

// Score computes overall and vowel accuracy plus the top focusLimit focus
// areas. The two scores come from different inputs (the full script versus
// the vowel errors) and can disagree. A non-positive focusLimit selects
// [DefaultFocusAreaLimit].
func Score(script align.Script, expected phoneme.Sequence, errs []VowelError, inv *phoneme.Inventory, focusLimit int) Scores {
	s := Scores{
		Overall:     1.0,
		Vowel:       1.0,
		TotalVowels: expected.VowelCount(),
	}

	if len(expected) > 0 {
		s.Overall = float64(script.Count(align.KindMatch)) / float64(len(expected))
	}

	lost := 0
	for _, e := range errs {
		if e.ErrorType == Substitution || e.ErrorType == Missing {
			lost++
		}
	}
	s.CorrectVowels = s.TotalVowels - lost
	if s.TotalVowels > 0 {
		s.Vowel = float64(s.CorrectVowels) / float64(s.TotalVowels)
	}

	s.FocusAreas = focusAreas(errs, inv, focusLimit)
	return s
}

// focusAreas groups errors by the class of their expected vowel and formats
// the most frequent ones. Ties keep the order in which a class first appears.
func focusAreas(errs []VowelError, inv *phoneme.Inventory, limit int) []string {
	if limit <= 0 {
		limit = DefaultFocusAreaLimit
	}

	type bucket struct {
		class phoneme.VowelClass
		count int
	}
	var buckets []*bucket
	byClass := make(map[phoneme.VowelClass]*bucket)

	for _, e := range errs {
		if e.Expected == nil {
			continue
		}
		tok := inv.Classify(*e.Expected)
		if !tok.IsVowel {
			continue
		}
		b, ok := byClass[tok.Class]
		if !ok {
			b = &bucket{class: tok.Class}
			byClass[tok.Class] = b
			buckets = append(buckets, b)
		}
		b.count++
	}

	slices.SortStableFunc(buckets, func(a, b *bucket) int {
		return cmp.Compare(b.count, a.count)
	})

	out := make([]string, 0, min(limit, len(buckets)))
	for _, b := range buckets[:min(limit, len(buckets))] {
		out = append(out, formatFocusArea(inv, b.class, b.count))
	}
	return out
}

func formatFocusArea(inv *phoneme.Inventory, class phoneme.VowelClass, count int) string {
	info, ok := inv.Class(class)
	if !ok {
		return fmt.Sprintf("/%s/ - %d error(s)", class, count)
	}
	if info.Example == "" {
		return fmt.Sprintf("/%s/ (%s) - %d error(s)", info.Symbol, info.Name, count)
	}
	return fmt.Sprintf("/%s/ (%s) - as in '%s' - %d error(s)", info.Symbol, info.Name, info.Example, count)
}
