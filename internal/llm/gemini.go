package llm

import (
	"context"
	"fmt"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50 // $0.50 per 1M input tokens (text/image/video)
	geminiOutputPricePerMillion = 3.00 // $3.00 per 1M output tokens (including thinking)
)

// contentGenerator is the part of *genai.Models the analyzer uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer uses Google's Gemini API for stamp analysis.
type GeminiAnalyzer struct {
	models contentGenerator
	model  string
}

// NewGeminiAnalyzer creates a new Gemini-based analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAnalyzer{models: client.Models, model: model}, nil
}

// AnalyzeStamp implements the Analyzer interface using Gemini. The request is
// issued once; retrying is up to the caller.
func (g *GeminiAnalyzer) AnalyzeStamp(ctx context.Context, image []byte, mimeType string, prior *stamp.Stamp, opts Options) (*AnalysisResult, error) {
	if len(image) == 0 {
		return nil, newAnalysisError(KindQualityOrUnknown, fmt.Errorf("no image provided"))
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
		genai.NewPartFromText(BuildPrompt(prior, opts)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	}

	result, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, newAnalysisError(Classify(err), fmt.Errorf("failed to generate content: %w", err))
	}
	if result == nil {
		return nil, newAnalysisError(KindEmptyResponse, nil)
	}
	if err := blockedError(result); err != nil {
		return nil, err
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.model).
		Bool("deepAnalysis", opts.DeepAnalysis).
		Bool("reanalysis", prior != nil).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("stamp analysis llm call")

	var text string
	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		text = result.Text()
	}
	analysis, err := ParseAnalysis(text)
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{Analysis: analysis, Usage: usage}, nil
}

// blockedError reports a prompt or candidate the service withheld for safety
// reasons.
func blockedError(result *genai.GenerateContentResponse) error {
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return newAnalysisError(KindSafetyBlocked, fmt.Errorf("prompt blocked: %s", fb.BlockReason))
	}
	if len(result.Candidates) > 0 && safetyFinishReasons[result.Candidates[0].FinishReason] {
		return newAnalysisError(KindSafetyBlocked, fmt.Errorf("response blocked: %s", result.Candidates[0].FinishReason))
	}
	return nil
}

// safetyFinishReasons are the finish reasons that mean the content was withheld.
var safetyFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:                 true,
	genai.FinishReasonBlocklist:              true,
	genai.FinishReasonProhibitedContent:      true,
	genai.FinishReasonSPII:                   true,
	genai.FinishReasonImageSafety:            true,
	genai.FinishReasonImageProhibitedContent: true,
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
