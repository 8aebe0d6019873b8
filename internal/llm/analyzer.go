// Package llm identifies stamps from photos with a generative model and
// normalizes the model output into stamp.Analysis values.
package llm

import (
	"context"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
)

// Options tune a single analysis request.
type Options struct {
	// Keywords is a free-text hint from the user, passed to the model verbatim.
	Keywords string
	// QualityHint describes what the photo should be examined for.
	QualityHint string
	// DeepAnalysis additionally requests printing method, paper type and
	// cancellation type.
	DeepAnalysis bool
	// Refresh skips cached results.
	Refresh bool
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// AnalysisResult contains the normalized analysis and usage information.
type AnalysisResult struct {
	Analysis *stamp.Analysis
	Usage    Usage
	Cached   bool
}

// Analyzer identifies a stamp from an image.
type Analyzer interface {
	// AnalyzeStamp analyzes one stamp photo. prior is the stored record when
	// re-analyzing and nil for a new scan. Failures are *AnalysisError.
	AnalyzeStamp(ctx context.Context, image []byte, mimeType string, prior *stamp.Stamp, opts Options) (*AnalysisResult, error)
}
