package assess

import (
	"github.com/MrWong99/vowelscore/internal/phoneme"
	"github.com/MrWong99/vowelscore/internal/wordmatch"
)

// wordDetails builds one [WordDetail] per span. owners holds, for every
// vowel error, the index of the span it was attributed to or -1.
func wordDetails(spans []span, owners []int, norm *phoneme.Normalizer, matcher *wordmatch.Matcher) []WordDetail {
	counts := make([]int, len(spans))
	for _, o := range owners {
		if o >= 0 && o < len(spans) {
			counts[o]++
		}
	}

	out := make([]WordDetail, len(spans))
	for i, s := range spans {
		d := WordDetail{
			Word:             s.Word,
			ExpectedPhonemes: norm.NormalizeSymbols(s.ExpectedPhonemes).Symbols(),
			ExpectedVowels:   s.vowels,
			StartMs:          copyInt64(s.StartMs),
			EndMs:            copyInt64(s.EndMs),
			Confidence:       copyFloat64(s.Confidence),
			Heard:            s.Heard,
			VowelErrors:      counts[i],
		}
		if s.Heard != "" && matcher != nil {
			sim, alike := matcher.Compare(s.Word, s.Heard)
			d.HeardSimilarity = &sim
			d.HeardSoundsAlike = &alike
		}
		out[i] = d
	}
	return out
}

// focusErrors returns the errors whose expected or actual vowel belongs to
// one of the focus vowels. Focus entries may be vowel symbols ("æ") or class
// names ("short_a"). Nil means no focus was requested.
func focusErrors(errs []VowelError, focus []string, inv *phoneme.Inventory) []VowelError {
	if len(focus) == 0 {
		return nil
	}
	classes := make(map[phoneme.VowelClass]struct{}, len(focus))
	for _, f := range focus {
		if tok := inv.Classify(f); tok.IsVowel {
			classes[tok.Class] = struct{}{}
			continue
		}
		classes[phoneme.VowelClass(f)] = struct{}{}
	}

	hit := func(sym *string) bool {
		if sym == nil {
			return false
		}
		tok := inv.Classify(*sym)
		if !tok.IsVowel {
			return false
		}
		_, ok := classes[tok.Class]
		return ok
	}

	out := []VowelError{}
	for _, e := range errs {
		if hit(e.Expected) || hit(e.Actual) {
			out = append(out, e)
		}
	}
	return out
}

func copyFloat64(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
