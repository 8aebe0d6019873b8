package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"
)

func TestMain(m *testing.M) {
	// genai links in opencensus, whose view worker starts in init and never exits.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeGenerator struct {
	response *genai.GenerateContentResponse
	err      error

	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	return f.response, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     1000,
			CandidatesTokenCount: 200,
			TotalTokenCount:      1200,
		},
	}
}

const basicResponse = `{"name":"Posthorn","origin":"Deutschland","year":"1951","estimatedValue":"45,00 €","rarity":"Selten","condition":"Zähnung: vollständig. Stempel: sauber","description":"Dauerserie"}`

func TestBuildPrompt(t *testing.T) {
	plain := BuildPrompt(nil, Options{})
	assert.NotContains(t, plain, "EXPERTENGUTACHTEN")
	assert.NotContains(t, plain, "NUTZER-HINWEIS")
	assert.NotContains(t, plain, "TIEFENANALYSE")
	assert.Contains(t, plain, "JSON")
	assert.Equal(t, plain, BuildPrompt(nil, Options{}), "deterministic")

	prior := &stamp.Stamp{ExpertStatus: stamp.StatusAppraised, ExpertValuation: "€500", ExpertNote: "Attest Schlegel"}
	full := BuildPrompt(prior, Options{Keywords: "Bayern Kreuzer", QualityHint: "Fokus auf Zähnung", DeepAnalysis: true})
	assert.Contains(t, full, "€500")
	assert.Contains(t, full, "Attest Schlegel")
	assert.Contains(t, full, `"Bayern Kreuzer"`)
	assert.Contains(t, full, "Fokus auf Zähnung")
	assert.Contains(t, full, "printingMethod")
	assert.Contains(t, full, "cancellationType")
}

func TestBuildPrompt_ExpertContextOnlyWhenAppraised(t *testing.T) {
	for _, status := range []stamp.ExpertStatus{stamp.StatusNone, stamp.StatusPending} {
		prior := &stamp.Stamp{ExpertStatus: status, ExpertValuation: "€500"}
		assert.NotContains(t, BuildPrompt(prior, Options{}), "€500", status)
	}
}

func TestResponseSchema(t *testing.T) {
	s := ResponseSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Properties, 11)
	assert.ElementsMatch(t, []string{"name", "origin", "year", "estimatedValue", "rarity", "condition", "description"}, s.Required)
	assert.Equal(t, "name", s.PropertyOrdering[0])
	assert.Equal(t, genai.TypeString, s.Properties["paperType"].Type)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		err   bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, false},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"prose around", `Hier: {"a":{"b":2}} fertig`, `{"a":{"b":2}}`, false},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, false},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`, false},
		{"none", `keine Daten`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnalysis_Defaults(t *testing.T) {
	a, err := ParseAnalysis(`{"name": null, "year": 1951, "description": "", "printingMethod": "", "paperType": "  "}`)
	require.NoError(t, err)
	assert.Equal(t, DefaultName, a.Name)
	assert.Equal(t, DefaultOrigin, a.Origin)
	assert.Equal(t, "1951", a.Year, "numbers are coerced to text")
	assert.Equal(t, DefaultEstimatedValue, a.EstimatedValue)
	assert.Equal(t, DefaultRarity, a.Rarity)
	assert.Equal(t, DefaultCondition, a.Condition)
	assert.Equal(t, "", a.Description)
	assert.Nil(t, a.PrintingMethod, "empty optional field is absent")
	assert.Nil(t, a.PaperType)
	assert.Nil(t, a.HistoricalContext)
}

func TestParseAnalysis_OptionalFields(t *testing.T) {
	a, err := ParseAnalysis(`{"name":"X","historicalContext":"Erste Ausgabe","printingMethod":"Buchdruck","paperType":"Wz. Kreuz","cancellationType":"Einkreis"}`)
	require.NoError(t, err)
	assert.Equal(t, "Erste Ausgabe", stamp.Deref(a.HistoricalContext))
	assert.Equal(t, "Buchdruck", stamp.Deref(a.PrintingMethod))
	assert.Equal(t, "Wz. Kreuz", stamp.Deref(a.PaperType))
	assert.Equal(t, "Einkreis", stamp.Deref(a.CancellationType))
}

func TestParseAnalysis_Failures(t *testing.T) {
	_, err := ParseAnalysis("   ")
	assert.Equal(t, KindEmptyResponse, KindOf(err))

	_, err = ParseAnalysis("Ich erkenne keine Briefmarke.")
	assert.Equal(t, KindMalformedResponse, KindOf(err))

	_, err = ParseAnalysis(`{"name": "X",}`)
	assert.Equal(t, KindMalformedResponse, KindOf(err))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, UserMessage(KindMalformedResponse), ae.Message)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"safety marker", errors.New("candidate blocked: SAFETY"), KindSafetyBlocked},
		{"german safety phrase", errors.New("Sicherheitsrichtlinien verletzt"), KindSafetyBlocked},
		{"german network", errors.New("Netzwerkfehler"), KindNetwork},
		{"connect", errors.New("konnte nicht verbinden"), KindNetwork},
		{"english connection", errors.New("dial tcp: connection refused"), KindNetwork},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindNetwork},
		{"net error", fmt.Errorf("call: %w", timeoutError{}), KindNetwork},
		{"api 503", genai.APIError{Code: 503, Message: "overloaded"}, KindNetwork},
		{"api 400", genai.APIError{Code: 400, Message: "invalid image"}, KindQualityOrUnknown},
		{"other", errors.New("unrecognizable"), KindQualityOrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
	assert.Equal(t, ErrorKind(""), Classify(nil))
}

func TestGeminiAnalyzer_AnalyzeStamp(t *testing.T) {
	gen := &fakeGenerator{response: textResponse("```json\n" + basicResponse + "\n```")}
	g := &GeminiAnalyzer{models: gen, model: "test-model"}

	res, err := g.AnalyzeStamp(context.Background(), []byte{1, 2, 3}, "image/png", nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Posthorn", res.Analysis.Name)
	assert.Nil(t, res.Analysis.PrintingMethod, "no deep analysis, no printing method")
	assert.False(t, res.Cached)
	assert.EqualValues(t, 1000, res.Usage.InputTokens)
	assert.InDelta(t, 0.0005+0.0006, res.Usage.CostUSD, 1e-12)

	assert.Equal(t, "test-model", gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Equal(t, BuildPrompt(nil, Options{}), parts[1].Text)
}

func TestGeminiAnalyzer_BlockedFinishReasons(t *testing.T) {
	tests := []struct {
		reason genai.FinishReason
		want   ErrorKind
	}{
		{genai.FinishReasonSafety, KindSafetyBlocked},
		{genai.FinishReasonProhibitedContent, KindSafetyBlocked},
		{genai.FinishReasonBlocklist, KindSafetyBlocked},
		{genai.FinishReasonSPII, KindSafetyBlocked},
		{genai.FinishReasonImageSafety, KindSafetyBlocked},
		{genai.FinishReasonMaxTokens, KindEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			resp := textResponse("")
			resp.Candidates[0].FinishReason = tt.reason
			g := &GeminiAnalyzer{models: &fakeGenerator{response: resp}, model: "m"}

			_, err := g.AnalyzeStamp(context.Background(), []byte{1}, "image/jpeg", nil, Options{})
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestGeminiAnalyzer_Errors(t *testing.T) {
	ctx := context.Background()

	g := &GeminiAnalyzer{models: &fakeGenerator{err: errors.New("dial tcp: connection reset")}, model: "m"}
	_, err := g.AnalyzeStamp(ctx, []byte{1}, "", nil, Options{})
	assert.Equal(t, KindNetwork, KindOf(err))

	blocked := textResponse("")
	blocked.Candidates[0].FinishReason = genai.FinishReasonSafety
	g = &GeminiAnalyzer{models: &fakeGenerator{response: blocked}, model: "m"}
	_, err = g.AnalyzeStamp(ctx, []byte{1}, "", nil, Options{})
	assert.Equal(t, KindSafetyBlocked, KindOf(err))

	g = &GeminiAnalyzer{models: &fakeGenerator{response: &genai.GenerateContentResponse{}}, model: "m"}
	_, err = g.AnalyzeStamp(ctx, []byte{1}, "", nil, Options{})
	assert.Equal(t, KindEmptyResponse, KindOf(err))

	gen := &fakeGenerator{}
	g = &GeminiAnalyzer{models: gen, model: "m"}
	_, err = g.AnalyzeStamp(ctx, nil, "", nil, Options{})
	assert.Error(t, err)
	assert.Zero(t, gen.calls)
}

type memoryCache map[string]*stamp.Analysis

func (m memoryCache) GetAnalysisCache(key string) (*stamp.Analysis, error) { return m[key], nil }
func (m memoryCache) SetAnalysisCache(key string, a *stamp.Analysis) error {
	m[key] = a
	return nil
}

func TestCachedAnalyzer(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{response: textResponse(basicResponse)}
	cache := memoryCache{}
	c := NewCachedAnalyzer(&GeminiAnalyzer{models: gen, model: "m"}, cache)

	first, err := c.AnalyzeStamp(ctx, []byte{1, 2}, "image/jpeg", nil, Options{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.AnalyzeStamp(ctx, []byte{1, 2}, "image/jpeg", nil, Options{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Analysis, second.Analysis)
	assert.Equal(t, 1, gen.calls)

	_, err = c.AnalyzeStamp(ctx, []byte{1, 2}, "image/jpeg", nil, Options{DeepAnalysis: true})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls, "different prompt, different key")

	refreshed, err := c.AnalyzeStamp(ctx, []byte{1, 2}, "image/jpeg", nil, Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, refreshed.Cached)
	assert.Equal(t, 3, gen.calls)
}

func TestCachedAnalyzer_ErrorsNotCached(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	cache := memoryCache{}
	c := NewCachedAnalyzer(&GeminiAnalyzer{models: gen, model: "m"}, cache)

	_, err := c.AnalyzeStamp(context.Background(), []byte{1}, "image/jpeg", nil, Options{})
	assert.Error(t, err)
	assert.Empty(t, cache)
}

func TestCacheKey_LengthPrefixed(t *testing.T) {
	assert.NotEqual(t, cacheKey([]byte("ab"), "c", "p"), cacheKey([]byte("a"), "bc", "p"))
	assert.Len(t, cacheKey(nil, "", ""), 64)
	assert.False(t, strings.ContainsAny(cacheKey([]byte{1}, "x", "y"), "ABCDEF"))
}
