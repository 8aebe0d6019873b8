package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raine/telegram-stamp-bot/internal/config"
	"github.com/raine/telegram-stamp-bot/internal/llm"
	"github.com/raine/telegram-stamp-bot/internal/stamp"
)

func main() {
	deep := flag.Bool("deep", false, "run the deep analysis prompt")
	keywords := flag.String("keywords", "", "hint keywords passed to the model")
	model := flag.String("model", "", "Gemini model (defaults to GEMINI_MODEL or "+llm.DefaultModel+")")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image-path>\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  %s - Required\n", config.EnvGeminiAPIKey)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	config.LoadEnvFile()
	apiKey := os.Getenv(config.EnvGeminiAPIKey)
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "%s is not set\n", config.EnvGeminiAPIKey)
		os.Exit(1)
	}
	if *model == "" {
		*model = os.Getenv(config.EnvGeminiModel)
	}

	imagePath := flag.Arg(0)
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	analyzer, err := llm.NewGeminiAnalyzer(ctx, apiKey, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating Gemini analyzer: %v\n", err)
		os.Exit(1)
	}

	result, err := analyzer.AnalyzeStamp(ctx, imageData, getMimeType(imagePath), nil, llm.Options{
		Keywords:     *keywords,
		DeepAnalysis: *deep,
	})
	if err != nil {
		kind := llm.KindOf(err)
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n\n%s\n", err, llm.UserMessage(kind))
		for _, tip := range llm.RemediationTips {
			fmt.Fprintf(os.Stderr, "  - %s\n", tip)
		}
		os.Exit(1)
	}

	printResult(result)
}

func printResult(result *llm.AnalysisResult) {
	out, err := json.MarshalIndent(result.Analysis, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode analysis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Println()
	fmt.Printf("Value:       %s\n", stamp.FormatEuro(stamp.ParseValue(result.Analysis.EstimatedValue)))
	fmt.Printf("Tokens:      %d in / %d out / %d total\n",
		result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.TotalTokens)
	fmt.Printf("Cost:        $%.6f\n", result.Usage.CostUSD)
}

func getMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
