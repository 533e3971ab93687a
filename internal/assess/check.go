package assess

import (
	"errors"
	"fmt"
)

// check verifies the invariants every [Result] must satisfy. A failure is a
// bug in alignment or extraction and is reported wrapped in [ErrInvariant].
func check(r *Result) error {
	var errs []error

	if r.TotalVowels != len(r.ExpectedVowels) {
		errs = append(errs, fmt.Errorf("total_vowels %d != len(expected_vowels) %d", r.TotalVowels, len(r.ExpectedVowels)))
	}

	lost := 0
	for i, e := range r.VowelErrors {
		switch e.ErrorType {
		case Substitution, Missing:
			lost++
			if e.Position < 0 || e.Position >= len(r.ExpectedVowels) {
				errs = append(errs, fmt.Errorf("vowel_errors[%d]: position %d outside %d expected vowels", i, e.Position, len(r.ExpectedVowels)))
				continue
			}
			if e.Expected == nil || *e.Expected != r.ExpectedVowels[e.Position] {
				errs = append(errs, fmt.Errorf("vowel_errors[%d]: expected symbol does not match expected_vowels[%d]", i, e.Position))
			}
		case Insertion:
			if e.Position < 0 || e.Position >= len(r.ActualVowels) {
				errs = append(errs, fmt.Errorf("vowel_errors[%d]: position %d outside %d actual vowels", i, e.Position, len(r.ActualVowels)))
				continue
			}
			if e.Actual == nil || *e.Actual != r.ActualVowels[e.Position] {
				errs = append(errs, fmt.Errorf("vowel_errors[%d]: actual symbol does not match actual_vowels[%d]", i, e.Position))
			}
		default:
			errs = append(errs, fmt.Errorf("vowel_errors[%d]: unknown error type %q", i, e.ErrorType))
		}
	}

	if r.CorrectVowels < 0 || r.CorrectVowels+lost != r.TotalVowels {
		errs = append(errs, fmt.Errorf("correct_vowels %d + %d lost != total_vowels %d", r.CorrectVowels, lost, r.TotalVowels))
	}
	if r.OverallScore < 0 || r.OverallScore > 1 {
		errs = append(errs, fmt.Errorf("overall_score %v outside [0, 1]", r.OverallScore))
	}
	if r.VowelScore < 0 || r.VowelScore > 1 {
		errs = append(errs, fmt.Errorf("vowel_score %v outside [0, 1]", r.VowelScore))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return nil
}
