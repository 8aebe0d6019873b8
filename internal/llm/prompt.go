package llm

import (
	"fmt"
	"strings"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"google.golang.org/genai"
)

const basePrompt = `Analysiere diese Briefmarke wie ein erfahrener Philatelist. Stütze dich auf die gängigen Kataloge (Michel, Scott, Stanley Gibbons).`

const identificationPrompt = `IDENTIFIZIERUNG: Land, Ausgabejahr, Name und Katalognummer, soweit bestimmbar.
ZUSTAND: Verwende Fachbegriffe (Luxus, Kabinett, postfrisch/MNH, ungebraucht/MH, gestempelt). Beurteile Zähnung, Zentrierung und Stempelqualität.
WERT: Realistischer Marktpreis in Euro.
HISTORIE: Historischer Kontext und philatelistische Bedeutung.`

const expertContextPrompt = `MASSGEBLICHES EXPERTENGUTACHTEN: Diese Marke wurde bereits von einem Experten begutachtet.
Experten-Wert: %s
Experten-Notiz: %s
Nutze diese Angaben als verbindliche Grundlage deiner Bewertung.`

const deepAnalysisPrompt = `TIEFENANALYSE: Bestimme zusätzlich
1. printingMethod: Druckverfahren (z.B. Stichtiefdruck, Buchdruck, Offset).
2. paperType: Papiermerkmale (Wasserzeichen, Seidenfaden, Kreidepapier).
3. cancellationType: Stempelform (Einkreisstempel, Brückenstempel, Rollstempel).`

const outputPrompt = `Antworte ausschließlich im JSON-Format gemäß dem Schema. Ist ein technisches Detail nicht eindeutig bestimmbar, lasse das Feld weg oder setze es auf einen leeren String.`

// BuildPrompt assembles the analysis prompt. The result depends only on its
// arguments.
func BuildPrompt(prior *stamp.Stamp, opts Options) string {
	sections := []string{basePrompt}

	if prior != nil && prior.ExpertStatus == stamp.StatusAppraised {
		sections = append(sections, fmt.Sprintf(expertContextPrompt, prior.ExpertValuation, prior.ExpertNote))
	}
	if kw := strings.TrimSpace(opts.Keywords); kw != "" {
		sections = append(sections, fmt.Sprintf("NUTZER-HINWEIS: %q", kw))
	}
	if hint := strings.TrimSpace(opts.QualityHint); hint != "" {
		sections = append(sections, "AUFNAHME-HINWEIS: "+hint)
	}

	sections = append(sections, identificationPrompt)
	if opts.DeepAnalysis {
		sections = append(sections, deepAnalysisPrompt)
	}
	sections = append(sections, outputPrompt)

	return strings.Join(sections, "\n\n")
}

// Response field names, in schema order.
var (
	requiredFields = []string{"name", "origin", "year", "estimatedValue", "rarity", "condition", "description"}
	optionalFields = []string{"historicalContext", "printingMethod", "paperType", "cancellationType"}
)

// ResponseSchema returns the structured output schema sent with every
// analysis request.
func ResponseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(requiredFields)+len(optionalFields))
	var ordering []string
	for _, name := range append(append([]string{}, requiredFields...), optionalFields...) {
		props[name] = &genai.Schema{Type: genai.TypeString}
		ordering = append(ordering, name)
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         append([]string{}, requiredFields...),
		PropertyOrdering: ordering,
	}
}
