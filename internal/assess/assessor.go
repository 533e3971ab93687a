package assess

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MrWong99/vowelscore/internal/align"
	"github.com/MrWong99/vowelscore/internal/observe"
	"github.com/MrWong99/vowelscore/internal/phoneme"
	"github.com/MrWong99/vowelscore/internal/wordmatch"
)

// Option is a functional option for configuring an [Assessor].
type Option func(*Assessor)

// WithFocusAreaLimit sets how many focus areas a result lists. Non-positive
// values select [DefaultFocusAreaLimit].
func WithFocusAreaLimit(n int) Option {
	return func(a *Assessor) {
		a.focusLimit = n
	}
}

// WithMetrics records assessment metrics on m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assessor) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithWordMatcher replaces the matcher used for heard-word similarity.
func WithWordMatcher(m *wordmatch.Matcher) Option {
	return func(a *Assessor) {
		a.matcher = m
	}
}

// WithAlignOptions passes options through to [align.Align].
func WithAlignOptions(opts ...align.Option) Option {
	return func(a *Assessor) {
		a.alignOpts = append(a.alignOpts, opts...)
	}
}

// Assessor runs complete assessments. It holds only read-only collaborators,
// so one Assessor may serve any number of concurrent calls.
type Assessor struct {
	norm       *phoneme.Normalizer
	matcher    *wordmatch.Matcher
	metrics    *observe.Metrics
	alignOpts  []align.Option
	focusLimit int
}

// New returns an Assessor that normalizes through norm. A nil norm selects a
// normalizer over [phoneme.DefaultInventory].
func New(norm *phoneme.Normalizer, opts ...Option) *Assessor {
	if norm == nil {
		norm = phoneme.NewNormalizer(nil)
	}
	a := &Assessor{
		norm:       norm,
		matcher:    wordmatch.New(),
		focusLimit: DefaultFocusAreaLimit,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

// Assess scores req. It returns either a complete [Result] or an error
// wrapping [ErrInvariant]; malformed or partial input never fails.
func (a *Assessor) Assess(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "assess.Assess")
	defer span.End()
	log := observe.Logger(ctx)

	res, err := a.assess(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		if errors.Is(err, ErrInvariant) {
			a.metrics.RecordInvariantViolation(ctx)
		}
		a.metrics.RecordAssessment(ctx, observe.StatusError, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("assessment failed", "err", err, "expected_text", req.ExpectedText)
		return nil, err
	}

	var subs, missing, ins int
	for _, e := range res.VowelErrors {
		switch e.ErrorType {
		case Substitution:
			subs++
		case Missing:
			missing++
		case Insertion:
			ins++
		}
	}
	a.metrics.RecordAssessment(ctx, observe.StatusOK, elapsed)
	a.metrics.RecordVowelErrors(ctx, string(Substitution), subs)
	a.metrics.RecordVowelErrors(ctx, string(Missing), missing)
	a.metrics.RecordVowelErrors(ctx, string(Insertion), ins)

	span.SetAttributes(
		attribute.Int("vowelscore.total_vowels", res.TotalVowels),
		attribute.Int("vowelscore.correct_vowels", res.CorrectVowels),
		attribute.Int("vowelscore.vowel_errors", len(res.VowelErrors)),
		attribute.Float64("vowelscore.vowel_score", res.VowelScore),
		attribute.Float64("vowelscore.overall_score", res.OverallScore),
	)

	log.Debug("normalized phonemes",
		"expected", res.ExpectedPhonemes,
		"actual", res.ActualPhonemes,
		"expected_vowels", strings.Join(res.ExpectedVowels, " "),
		"actual_vowels", strings.Join(res.ActualVowels, " "),
	)
	log.Info("assessment complete",
		"overall_score", res.OverallScore,
		"vowel_score", res.VowelScore,
		"errors", len(res.VowelErrors),
		"words", len(res.WordDetails),
	)
	return res, nil
}

// assess is the pure part of Assess.
func (a *Assessor) assess(req Request) (*Result, error) {
	inv := a.norm.Inventory()

	expected := a.expectedSequence(req)
	actual := a.norm.Normalize(req.ActualPhonemes)
	if len(req.ActualPhonemeList) > 0 {
		actual = a.norm.NormalizeSymbols(req.ActualPhonemeList)
	}

	spans := newSpans(req.Words, a.norm)
	script := align.Align(expected, actual, a.alignOpts...)

	errs, owners, err := extract(script, expected, actual, spans, inv)
	if err != nil {
		return nil, err
	}
	scores := Score(script, expected, errs, inv, a.focusLimit)

	res := &Result{
		OverallScore:     scores.Overall,
		VowelScore:       scores.Vowel,
		VowelErrors:      errs,
		FocusAreas:       scores.FocusAreas,
		WordDetails:      wordDetails(spans, owners, a.norm, a.matcher),
		ExpectedVowels:   expected.Vowels(),
		ActualVowels:     actual.Vowels(),
		TotalVowels:      scores.TotalVowels,
		CorrectVowels:    scores.CorrectVowels,
		ExpectedPhonemes: expected.String(),
		ActualPhonemes:   actual.String(),
		FocusVowelErrors: focusErrors(errs, req.FocusVowels, inv),
	}
	if err := check(res); err != nil {
		return nil, err
	}
	return res, nil
}

// expectedSequence normalizes the expected transcription, falling back to
// the words' own phonemes when no sentence-level string was supplied.
func (a *Assessor) expectedSequence(req Request) phoneme.Sequence {
	if strings.TrimSpace(req.ExpectedPhonemes) != "" {
		return a.norm.Normalize(req.ExpectedPhonemes)
	}
	var syms []string
	for _, w := range req.Words {
		syms = append(syms, w.ExpectedPhonemes...)
	}
	return a.norm.NormalizeSymbols(syms)
}
