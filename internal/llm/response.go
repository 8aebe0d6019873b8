package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
)

// Defaults for required fields the model left out.
const (
	DefaultName           = "Unbekannte Marke"
	DefaultOrigin         = "Unbekannt"
	DefaultYear           = "N/A"
	DefaultEstimatedValue = "0.00 €"
	DefaultRarity         = "Nicht klassifiziert"
	DefaultCondition      = "Zustand unklar"
)

// extractJSONObject returns the first balanced JSON object in text, which may
// be wrapped in markdown code fences or prose.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	// Unbalanced; let the decoder report what is wrong.
	end := strings.LastIndex(text, "}")
	if end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// ParseAnalysis turns raw model output into a normalized analysis. Missing
// required fields get their defaults; missing or empty optional fields stay
// nil.
func ParseAnalysis(text string) (*stamp.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newAnalysisError(KindEmptyResponse, nil)
	}

	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, newAnalysisError(KindMalformedResponse, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(jsonStr)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, newAnalysisError(KindMalformedResponse, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr))
	}

	return &stamp.Analysis{
		Name:              requiredField(doc, "name", DefaultName),
		Origin:            requiredField(doc, "origin", DefaultOrigin),
		Year:              requiredField(doc, "year", DefaultYear),
		EstimatedValue:    requiredField(doc, "estimatedValue", DefaultEstimatedValue),
		Rarity:            requiredField(doc, "rarity", DefaultRarity),
		Condition:         requiredField(doc, "condition", DefaultCondition),
		Description:       requiredField(doc, "description", ""),
		HistoricalContext: optionalField(doc, "historicalContext"),
		PrintingMethod:    optionalField(doc, "printingMethod"),
		PaperType:         optionalField(doc, "paperType"),
		CancellationType:  optionalField(doc, "cancellationType"),
	}, nil
}

func requiredField(doc map[string]any, key, fallback string) string {
	if s, ok := coerceString(doc[key]); ok {
		return s
	}
	return fallback
}

func optionalField(doc map[string]any, key string) *string {
	s, ok := coerceString(doc[key])
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// coerceString renders any JSON value as a string. Null, false, zero and the
// empty string report false.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return "true", t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return "", false
		}
		return t.String(), true
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}
