// Package assess scores a speaker's vowels by comparing the phonemes they
// produced against the phonemes the target sentence expects.
//
// An assessment runs in four steps, each a pure function over its inputs:
//
//  1. Both phoneme strings are normalized into classified sequences
//     (package phoneme).
//  2. The sequences are aligned in full, consonants included (package align).
//  3. [ExtractVowelErrors] walks the edit script and keeps only the
//     operations that touch a vowel. Each error is attributed to a word
//     when [WordSpan]s are available.
//  4. [Score] turns the script and the errors into accuracy figures and a
//     ranked list of focus areas.
//
// [Assessor] chains the steps, checks the result's invariants and reports
// metrics and a trace span. An assessment keeps no state between calls: the
// same [Request] always yields the same [Result].
package assess

import "github.com/MrWong99/vowelscore/internal/phoneme"

// ErrorType classifies a vowel error.
type ErrorType string

const (
	// Substitution: an expected vowel was realised as a different sound.
	Substitution ErrorType = "substitution"

	// Missing: an expected vowel was not produced at all.
	Missing ErrorType = "missing"

	// Insertion: a vowel was produced where none was expected.
	Insertion ErrorType = "insertion"
)

// Request is the input to [Assessor.Assess].
type Request struct {
	// ExpectedText is the target sentence. It is informational only; the
	// expected phonemes come from ExpectedPhonemes or, when that is empty,
	// from the concatenated Words[].ExpectedPhonemes.
	ExpectedText string `json:"expected_text,omitempty"`

	// ExpectedPhonemes is the IPA or ARPAbet transcription of the target.
	ExpectedPhonemes string `json:"expected_phonemes,omitempty"`

	// ActualPhonemes is the recognised IPA string.
	ActualPhonemes string `json:"actual_phonemes,omitempty"`

	// ActualPhonemeList is the recogniser's token list. Used instead of
	// ActualPhonemes when non-empty.
	ActualPhonemeList []string `json:"actual_phoneme_list,omitempty"`

	// Words is the optional forced-alignment output, one span per target
	// word in sentence order.
	Words []WordSpan `json:"words,omitempty"`

	// FocusVowels lists vowel symbols or class names to highlight. It never
	// changes scoring; matching errors are copied to Result.FocusVowelErrors.
	FocusVowels []string `json:"focus_vowels,omitempty"`
}

// WordSpan describes one target word. Any field may be missing; attribution
// degrades instead of failing.
type WordSpan struct {
	Word                 string   `json:"word"`
	ExpectedPhonemes     []string `json:"expected_phonemes,omitempty"`
	ExpectedVowelSymbols []string `json:"expected_vowels,omitempty"`
	StartMs              *int64   `json:"start_ms,omitempty"`
	EndMs                *int64   `json:"end_ms,omitempty"`

	// Heard is the word the recogniser produced for this span, if known.
	Heard string `json:"heard,omitempty"`

	// Confidence is the forced-alignment score for the span.
	Confidence *float64 `json:"confidence,omitempty"`
}

// VowelError is one vowel-affecting edit. Position indexes the expected
// vowel subsequence for substitution and missing errors and the actual
// vowel subsequence for insertions.
type VowelError struct {
	Position        int       `json:"position"`
	Expected        *string   `json:"expected"`
	Actual          *string   `json:"actual"`
	ErrorType       ErrorType `json:"error_type"`
	ExpectedName    string    `json:"expected_name,omitempty"`
	ActualName      string    `json:"actual_name,omitempty"`
	CommonConfusion bool      `json:"common_confusion,omitempty"`
	Word            *string   `json:"word"`
	StartMs         *int64    `json:"timestamp_ms"`
	EndMs           *int64    `json:"end_timestamp_ms"`
}

// WordDetail summarises one [WordSpan] in the result.
type WordDetail struct {
	Word             string   `json:"word"`
	ExpectedPhonemes []string `json:"expected_phonemes"`
	ExpectedVowels   []string `json:"expected_vowels"`
	StartMs          *int64   `json:"start_ms"`
	EndMs            *int64   `json:"end_ms"`
	Confidence       *float64 `json:"confidence"`
	Heard            string   `json:"heard,omitempty"`
	HeardSimilarity  *float64 `json:"heard_similarity,omitempty"`
	HeardSoundsAlike *bool    `json:"heard_sounds_alike,omitempty"`
	VowelErrors      int      `json:"vowel_errors"`
}

// Result is the complete assessment.
type Result struct {
	OverallScore     float64      `json:"overall_score"`
	VowelScore       float64      `json:"vowel_score"`
	VowelErrors      []VowelError `json:"vowel_errors"`
	FocusAreas       []string     `json:"focus_areas"`
	WordDetails      []WordDetail `json:"word_details"`
	ExpectedVowels   []string     `json:"expected_vowels"`
	ActualVowels     []string     `json:"actual_vowels"`
	TotalVowels      int          `json:"total_vowels"`
	CorrectVowels    int          `json:"correct_vowels"`
	ExpectedPhonemes string       `json:"expected_phonemes"`
	ActualPhonemes   string       `json:"actual_phonemes"`
	FocusVowelErrors []VowelError `json:"focus_vowel_errors,omitempty"`
}

// span pairs a word span with its normalized expected vowels.
type span struct {
	WordSpan
	vowels []string
}

// spanVowels returns the vowel symbols of w. Explicit ExpectedVowelSymbols
// win; otherwise they are derived from ExpectedPhonemes through the
// inventory.
func spanVowels(w WordSpan, norm *phoneme.Normalizer) []string {
	if len(w.ExpectedVowelSymbols) > 0 {
		// Segmented like the sentence sequence, so "ɪ", "ə" merges into "ɪə"
		// here exactly when it does there.
		return norm.NormalizeSymbols(w.ExpectedVowelSymbols).Vowels()
	}
	if len(w.ExpectedPhonemes) > 0 {
		return norm.NormalizeSymbols(w.ExpectedPhonemes).Vowels()
	}
	return []string{}
}

func newSpans(words []WordSpan, norm *phoneme.Normalizer) []span {
	spans := make([]span, len(words))
	for i, w := range words {
		spans[i] = span{WordSpan: w, vowels: spanVowels(w, norm)}
	}
	return spans
}

func strPtr(s string) *string { return &s }
