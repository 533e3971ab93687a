package assess_test

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/MrWong99/vowelscore/internal/align"
	"github.com/MrWong99/vowelscore/internal/assess"
	"github.com/MrWong99/vowelscore/internal/observe"
	"github.com/MrWong99/vowelscore/internal/phoneme"
)

// newAssessor returns an Assessor whose metrics go to a private reader.
func newAssessor(t *testing.T, opts ...assess.Option) (*assess.Assessor, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return assess.New(nil, append([]assess.Option{assess.WithMetrics(m)}, opts...)...), reader
}

func mustAssess(t *testing.T, a *assess.Assessor, req assess.Request) *assess.Result {
	t.Helper()
	res, err := a.Assess(context.Background(), req)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	return res
}

func TestAssess_Identity(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{
		ExpectedPhonemes: "ðə kæt sæt",
		ActualPhonemes:   "ðə kæt sæt",
	})

	if len(res.VowelErrors) != 0 {
		t.Errorf("VowelErrors = %v, want none", res.VowelErrors)
	}
	if res.VowelScore != 1 || res.OverallScore != 1 {
		t.Errorf("scores = (%v, %v), want (1, 1)", res.OverallScore, res.VowelScore)
	}
	if diff := cmp.Diff([]string{"ə", "æ", "æ"}, res.ExpectedVowels); diff != "" {
		t.Errorf("ExpectedVowels mismatch (-want +got):\n%s", diff)
	}
	if res.TotalVowels != 3 || res.CorrectVowels != 3 {
		t.Errorf("vowels = %d/%d, want 3/3", res.CorrectVowels, res.TotalVowels)
	}
}

func TestAssess_Substitution(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{ExpectedPhonemes: "h aʊ", ActualPhonemes: "h oʊ"})

	want := []assess.VowelError{{
		Position:     0,
		Expected:     str("aʊ"),
		Actual:       str("oʊ"),
		ErrorType:    assess.Substitution,
		ExpectedName: "ow",
		ActualName:   "long o",
	}}
	if diff := cmp.Diff(want, res.VowelErrors); diff != "" {
		t.Errorf("VowelErrors mismatch (-want +got):\n%s", diff)
	}
	if res.VowelScore != 0 || res.TotalVowels != 1 {
		t.Errorf("vowel score %v over %d vowels, want 0 over 1", res.VowelScore, res.TotalVowels)
	}
	if res.OverallScore != 0.5 {
		t.Errorf("OverallScore = %v, want 0.5", res.OverallScore)
	}
}

func TestAssess_Missing(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{ExpectedPhonemes: "k æ t", ActualPhonemes: "k t"})

	if len(res.VowelErrors) != 1 {
		t.Fatalf("got %d errors, want 1", len(res.VowelErrors))
	}
	e := res.VowelErrors[0]
	if e.ErrorType != assess.Missing || e.Expected == nil || *e.Expected != "æ" || e.Actual != nil {
		t.Errorf("error = %+v, want missing æ with nil actual", e)
	}
}

func TestAssess_EmptyInput(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{ExpectedPhonemes: "  ", ActualPhonemes: "!!"})

	if res.OverallScore != 1 || res.VowelScore != 1 || res.TotalVowels != 0 {
		t.Errorf("empty input: got %+v, want trivially perfect result", res)
	}
	if res.VowelErrors == nil || res.WordDetails == nil || res.ExpectedVowels == nil || res.FocusAreas == nil {
		t.Error("result slices must be non-nil so they serialize as []")
	}
}

func TestAssess_ARPAbetExpected(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{ExpectedPhonemes: "HH AW1 N AW1", ActualPhonemes: "haʊ naʊ"})

	if res.ExpectedPhonemes != "h aʊ n aʊ" {
		t.Errorf("ExpectedPhonemes = %q, want %q", res.ExpectedPhonemes, "h aʊ n aʊ")
	}
	if len(res.VowelErrors) != 0 {
		t.Errorf("VowelErrors = %v, want none", res.VowelErrors)
	}
}

func TestAssess_ActualPhonemeList(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{
		ExpectedPhonemes:  "h aʊ",
		ActualPhonemes:    "h oʊ",
		ActualPhonemeList: []string{"h", "a", "ʊ"},
	})
	if res.ActualPhonemes != "h aʊ" || len(res.VowelErrors) != 0 {
		t.Errorf("list should win and merge the split diphthong; got %q with %d errors", res.ActualPhonemes, len(res.VowelErrors))
	}
}

func TestAssess_WordDetails(t *testing.T) {
	t.Parallel()

	conf := 0.91
	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{
		ExpectedText:   "how now",
		ActualPhonemes: "h aʊ n oʊ",
		Words: []assess.WordSpan{
			{Word: "how", ExpectedPhonemes: []string{"h", "aʊ"}, StartMs: ms(0), EndMs: ms(300), Confidence: &conf},
			{Word: "now", ExpectedPhonemes: []string{"n", "ˈaʊ"}, StartMs: ms(300), EndMs: ms(640), Heard: "know"},
		},
	})

	if res.ExpectedPhonemes != "h aʊ n aʊ" {
		t.Errorf("expected sequence from words = %q, want %q", res.ExpectedPhonemes, "h aʊ n aʊ")
	}
	if len(res.VowelErrors) != 1 || res.VowelErrors[0].Word == nil || *res.VowelErrors[0].Word != "now" {
		t.Fatalf("VowelErrors = %+v, want one error on %q", res.VowelErrors, "now")
	}

	if len(res.WordDetails) != 2 {
		t.Fatalf("got %d word details, want 2", len(res.WordDetails))
	}
	how, now := res.WordDetails[0], res.WordDetails[1]
	if how.VowelErrors != 0 || now.VowelErrors != 1 {
		t.Errorf("per-word errors = (%d, %d), want (0, 1)", how.VowelErrors, now.VowelErrors)
	}
	if how.Confidence == nil || *how.Confidence != conf {
		t.Errorf("how.Confidence = %v, want %v", how.Confidence, conf)
	}
	if how.HeardSimilarity != nil {
		t.Error("how has no heard word, HeardSimilarity should be nil")
	}
	if diff := cmp.Diff([]string{"n", "aʊ"}, now.ExpectedPhonemes); diff != "" {
		t.Errorf("now.ExpectedPhonemes mismatch (-want +got):\n%s", diff)
	}
	if now.HeardSimilarity == nil || *now.HeardSimilarity <= 0 || *now.HeardSimilarity >= 1 {
		t.Errorf("now.HeardSimilarity = %v, want in (0, 1)", now.HeardSimilarity)
	}
}

func TestAssess_SplitVowelSymbolsKeepWordAttribution(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{
		ExpectedPhonemes: "m i d ɪ ə n aʊ",
		ActualPhonemes:   "m i d ɪ ə n oʊ",
		Words: []assess.WordSpan{
			{Word: "media", ExpectedVowelSymbols: []string{"i", "ɪ", "ə"}},
			{Word: "now", ExpectedVowelSymbols: []string{"aʊ"}},
		},
	})

	if diff := cmp.Diff([]string{"i", "ɪə", "aʊ"}, res.ExpectedVowels); diff != "" {
		t.Errorf("ExpectedVowels mismatch (-want +got):\n%s", diff)
	}
	if len(res.VowelErrors) != 1 {
		t.Fatalf("VowelErrors = %+v, want one", res.VowelErrors)
	}
	if e := res.VowelErrors[0]; e.Position != 2 || e.Word == nil || *e.Word != "now" {
		t.Errorf("error = %+v, want position 2 on %q", e, "now")
	}
	if len(res.WordDetails) != 2 {
		t.Fatalf("got %d word details, want 2", len(res.WordDetails))
	}
	media, now := res.WordDetails[0], res.WordDetails[1]
	if diff := cmp.Diff([]string{"i", "ɪə"}, media.ExpectedVowels); diff != "" {
		t.Errorf("media.ExpectedVowels mismatch (-want +got):\n%s", diff)
	}
	if media.VowelErrors != 0 || now.VowelErrors != 1 {
		t.Errorf("per-word errors = (%d, %d), want (0, 1)", media.VowelErrors, now.VowelErrors)
	}
}

func TestAssess_FocusVowels(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	req := assess.Request{
		ExpectedPhonemes: "b ɪ t k æ t k æ t",
		ActualPhonemes:   "b i t k ɛ t k ɛ t",
	}

	res := mustAssess(t, a, req)
	if res.FocusVowelErrors != nil {
		t.Errorf("FocusVowelErrors = %v, want nil without focus vowels", res.FocusVowelErrors)
	}

	req.FocusVowels = []string{"æ"}
	focused := mustAssess(t, a, req)
	if len(focused.FocusVowelErrors) != 2 {
		t.Errorf("got %d focus errors for æ, want 2", len(focused.FocusVowelErrors))
	}

	req.FocusVowels = []string{"long_ee"}
	byClass := mustAssess(t, a, req)
	if len(byClass.FocusVowelErrors) != 1 {
		t.Errorf("got %d focus errors for class long_ee, want 1", len(byClass.FocusVowelErrors))
	}

	// Focus vowels are advisory only.
	if focused.VowelScore != res.VowelScore || !cmp.Equal(focused.VowelErrors, res.VowelErrors) {
		t.Error("focus vowels must not change scoring")
	}
}

func TestAssess_FocusAreaLimitOption(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t, assess.WithFocusAreaLimit(1))
	res := mustAssess(t, a, assess.Request{
		ExpectedPhonemes: "k æ t b ɪ t",
		ActualPhonemes:   "k ɛ t b i t",
	})
	if len(res.FocusAreas) != 1 {
		t.Errorf("got %d focus areas, want 1", len(res.FocusAreas))
	}
}

func TestAssess_SubstitutionCostExtension(t *testing.T) {
	t.Parallel()

	// Substitutions dearer than a delete plus an insert split every
	// mismatch into a missing and an inserted vowel.
	a, _ := newAssessor(t, assess.WithAlignOptions(align.WithSubstitutionCost(func(_, _ string) int { return 3 })))
	res := mustAssess(t, a, assess.Request{ExpectedPhonemes: "h aʊ", ActualPhonemes: "h oʊ"})

	got := kinds(res.VowelErrors)
	want := []kind{
		{0, "<nil>", "oʊ", assess.Insertion, "<nil>"},
		{0, "aʊ", "<nil>", assess.Missing, "<nil>"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if res.CorrectVowels != 0 || res.TotalVowels != 1 {
		t.Errorf("vowels = %d/%d, want 0/1", res.CorrectVowels, res.TotalVowels)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	req := assess.Request{
		ExpectedPhonemes: "ðə kwɪk bɹaʊn fɑks",
		ActualPhonemes:   "də kwik bɹoʊn fɔks ə",
		Words: []assess.WordSpan{
			{Word: "the", ExpectedVowelSymbols: []string{"ə"}, StartMs: ms(0), EndMs: ms(120)},
			{Word: "quick", ExpectedVowelSymbols: []string{"ɪ"}, StartMs: ms(120), EndMs: ms(400)},
			{Word: "brown", ExpectedVowelSymbols: []string{"aʊ"}, Heard: "brawn"},
		},
		FocusVowels: []string{"aʊ"},
	}

	var outputs [2][]byte
	for i := range outputs {
		res := mustAssess(t, a, req)
		b, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		outputs[i] = b
	}
	if string(outputs[0]) != string(outputs[1]) {
		t.Errorf("results differ:\n%s\n%s", outputs[0], outputs[1])
	}
}

func TestAssess_JSONFieldNames(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	res := mustAssess(t, a, assess.Request{ExpectedPhonemes: "k æ t", ActualPhonemes: "k t"})
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{
		"overall_score", "vowel_score", "vowel_errors", "focus_areas", "word_details",
		"expected_vowels", "actual_vowels", "total_vowels", "correct_vowels",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("serialized result is missing %q", key)
		}
	}
	if !strings.Contains(string(m["vowel_errors"]), `"error_type":"missing"`) {
		t.Errorf("vowel_errors = %s, want error_type \"missing\"", m["vowel_errors"])
	}
}

// TestAssess_CountInvariant checks correct + substitution + missing ==
// total over random sequence pairs.
func TestAssess_CountInvariant(t *testing.T) {
	t.Parallel()

	pool := []string{"p", "t", "k", "s", "n", "ɹ", "æ", "ɪ", "i", "ə", "aʊ", "oʊ", "ɛ", "ʌ"}
	r := rand.New(rand.NewPCG(7, 11))
	randSeq := func() string {
		n := r.IntN(9)
		syms := make([]string, n)
		for i := range syms {
			syms[i] = pool[r.IntN(len(pool))]
		}
		return strings.Join(syms, " ")
	}

	a, _ := newAssessor(t)
	for range 300 {
		req := assess.Request{ExpectedPhonemes: randSeq(), ActualPhonemes: randSeq()}
		res, err := a.Assess(context.Background(), req)
		if err != nil {
			t.Fatalf("Assess(%q, %q): %v", req.ExpectedPhonemes, req.ActualPhonemes, err)
		}
		lost := 0
		for _, e := range res.VowelErrors {
			if e.ErrorType != assess.Insertion {
				lost++
			}
		}
		if res.CorrectVowels+lost != res.TotalVowels {
			t.Fatalf("Assess(%q, %q): %d correct + %d lost != %d total",
				req.ExpectedPhonemes, req.ActualPhonemes, res.CorrectVowels, lost, res.TotalVowels)
		}
		if res.TotalVowels == 0 && (len(res.VowelErrors) != 0 || res.VowelScore != 1) {
			t.Fatalf("Assess(%q, %q): vowel-less sentence scored %v with %d errors",
				req.ExpectedPhonemes, req.ActualPhonemes, res.VowelScore, len(res.VowelErrors))
		}
	}
}

func TestAssess_Concurrent(t *testing.T) {
	t.Parallel()

	a, _ := newAssessor(t)
	req := assess.Request{ExpectedPhonemes: "h aʊ n aʊ", ActualPhonemes: "h oʊ n aʊ"}
	want := mustAssess(t, a, req)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			got, err := a.Assess(context.Background(), req)
			if err != nil {
				t.Errorf("Assess: %v", err)
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("concurrent result mismatch (-want +got):\n%s", diff)
			}
		})
	}
	wg.Wait()
}

func TestAssess_Metrics(t *testing.T) {
	t.Parallel()

	a, reader := newAssessor(t)
	mustAssess(t, a, assess.Request{ExpectedPhonemes: "k æ t b ɪ t", ActualPhonemes: "k t b i t ə"})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]int64{}
	var assessments int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "vowelscore.vowel_errors":
					v, _ := dp.Attributes.Value(attribute.Key("error_type"))
					counts[v.AsString()] += dp.Value
				case "vowelscore.assessments":
					assessments += dp.Value
				}
			}
		}
	}

	if assessments != 1 {
		t.Errorf("assessments = %d, want 1", assessments)
	}
	want := map[string]int64{"missing": 1, "substitution": 1, "insertion": 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("vowel_errors mismatch (-want +got):\n%s", diff)
	}
}

// TestAssess_Span is not parallel: it swaps the global tracer provider.
func TestAssess_Span(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		_ = tp.Shutdown(context.Background())
	})

	a, _ := newAssessor(t)
	mustAssess(t, a, assess.Request{ExpectedPhonemes: "h aʊ", ActualPhonemes: "h oʊ"})

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "assess.Assess" {
		t.Fatalf("spans = %v, want one assess.Assess span", spans)
	}
	var found bool
	for _, kv := range spans[0].Attributes {
		if kv.Key == "vowelscore.total_vowels" && kv.Value.AsInt64() == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("span attributes %v missing vowelscore.total_vowels=1", spans[0].Attributes)
	}
}

func TestNew_CustomInventory(t *testing.T) {
	t.Parallel()

	inv, err := phoneme.NewInventory(phoneme.InventoryFile{
		Vowels: []phoneme.VowelDef{
			{Symbol: "a", Class: "open"},
			{Symbol: "o", Class: "back"},
		},
	})
	if err != nil {
		t.Fatalf("NewInventory: %v", err)
	}
	a := assess.New(phoneme.NewNormalizer(inv))
	res, err := a.Assess(context.Background(), assess.Request{ExpectedPhonemes: "k a t", ActualPhonemes: "k o t"})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if diff := cmp.Diff([]string{"/a/ (open) - 1 error(s)"}, res.FocusAreas); diff != "" {
		t.Errorf("FocusAreas mismatch (-want +got):\n%s", diff)
	}
}
