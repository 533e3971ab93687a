package assess

import (
	"errors"
	"fmt"

	"github.com/MrWong99/vowelscore/internal/align"
	"github.com/MrWong99/vowelscore/internal/phoneme"
)

// ErrInvariant marks an internal consistency failure: an alignment index out
// of range or a result whose counts do not add up. It indicates a bug, never
// bad input.
var ErrInvariant = errors.New("assess: internal invariant violated")

// ExtractVowelErrors converts the vowel-affecting operations of script into
// [VowelError]s. Operations on consonants only are dropped. words is
// optional; when given, errors are attributed to words in order.
func ExtractVowelErrors(script align.Script, expected, actual phoneme.Sequence, words []WordSpan, norm *phoneme.Normalizer) ([]VowelError, error) {
	if norm == nil {
		norm = phoneme.NewNormalizer(nil)
	}
	errs, _, err := extract(script, expected, actual, newSpans(words, norm), norm.Inventory())
	return errs, err
}

// extract is ExtractVowelErrors plus, for every error, the index of the span
// it was attributed to (-1 when unattributed).
func extract(script align.Script, expected, actual phoneme.Sequence, spans []span, inv *phoneme.Inventory) ([]VowelError, []int, error) {
	out := []VowelError{}
	var owners []int

	// With no expected vowel there is nothing to assess; extra vowels in the
	// actual sequence are not reported either.
	if expected.VowelCount() == 0 {
		return out, owners, nil
	}

	cur := wordCursor{spans: spans}
	ev, av := 0, 0 // positions in the expected / actual vowel subsequences

	emit := func(e VowelError) {
		owner := cur.at(ev)
		if owner >= 0 {
			s := spans[owner]
			if s.Word != "" {
				e.Word = strPtr(s.Word)
			}
			e.StartMs = copyInt64(s.StartMs)
			e.EndMs = copyInt64(s.EndMs)
		}
		if e.Expected != nil {
			e.ExpectedName = inv.VowelName(*e.Expected)
		}
		if e.Actual != nil {
			e.ActualName = inv.VowelName(*e.Actual)
		}
		if e.Expected != nil && e.Actual != nil {
			e.CommonConfusion = inv.Confusable(*e.Expected, *e.Actual)
		}
		out = append(out, e)
		owners = append(owners, owner)
	}

	for n, op := range script {
		switch o := op.(type) {
		case align.Match:
			et, at, err := pair(expected, actual, o.Expected, o.Actual, n)
			if err != nil {
				return nil, nil, err
			}
			if et.IsVowel {
				ev++
			}
			if at.IsVowel {
				av++
			}

		case align.Substitute:
			et, at, err := pair(expected, actual, o.Expected, o.Actual, n)
			if err != nil {
				return nil, nil, err
			}
			switch {
			case et.IsVowel:
				emit(VowelError{
					Position:  ev,
					Expected:  strPtr(et.Symbol),
					Actual:    strPtr(at.Symbol),
					ErrorType: Substitution,
				})
				ev++
				if at.IsVowel {
					av++
				}
			case at.IsVowel:
				// A vowel where a consonant was expected: no expected vowel
				// was lost, so it counts against the actual side only.
				emit(VowelError{
					Position:  av,
					Expected:  strPtr(et.Symbol),
					Actual:    strPtr(at.Symbol),
					ErrorType: Insertion,
				})
				av++
			}

		case align.Delete:
			if o.Expected < 0 || o.Expected >= len(expected) {
				return nil, nil, fmt.Errorf("%w: op %d deletes expected[%d] of %d", ErrInvariant, n, o.Expected, len(expected))
			}
			if et := expected[o.Expected]; et.IsVowel {
				emit(VowelError{
					Position:  ev,
					Expected:  strPtr(et.Symbol),
					ErrorType: Missing,
				})
				ev++
			}

		case align.Insert:
			if o.Actual < 0 || o.Actual >= len(actual) {
				return nil, nil, fmt.Errorf("%w: op %d inserts actual[%d] of %d", ErrInvariant, n, o.Actual, len(actual))
			}
			if at := actual[o.Actual]; at.IsVowel {
				emit(VowelError{
					Position:  av,
					Actual:    strPtr(at.Symbol),
					ErrorType: Insertion,
				})
				av++
			}

		default:
			return nil, nil, fmt.Errorf("%w: op %d has unknown type %T", ErrInvariant, n, op)
		}
	}
	return out, owners, nil
}

func pair(expected, actual phoneme.Sequence, ei, ai, n int) (phoneme.Token, phoneme.Token, error) {
	if ei < 0 || ei >= len(expected) || ai < 0 || ai >= len(actual) {
		return phoneme.Token{}, phoneme.Token{}, fmt.Errorf("%w: op %d pairs expected[%d] of %d with actual[%d] of %d",
			ErrInvariant, n, ei, len(expected), ai, len(actual))
	}
	return expected[ei], actual[ai], nil
}

// wordCursor maps expected-vowel positions to spans by consuming each span's
// vowel count in order. Lookups must be non-decreasing, which the extractor
// guarantees because its expected-vowel counter only grows.
type wordCursor struct {
	spans []span
	k     int // current span
	start int // expected-vowel position where spans[k] begins
}

// at returns the index of the span containing position idx, or -1 once idx
// is past the vowels the spans describe.
func (c *wordCursor) at(idx int) int {
	for c.k < len(c.spans) && idx >= c.start+len(c.spans[c.k].vowels) {
		c.start += len(c.spans[c.k].vowels)
		c.k++
	}
	if c.k >= len(c.spans) {
		return -1
	}
	return c.k
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
