package bot

import (
	"fmt"
	"strings"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
)

const (
	emptyValue = "–"

	// maxFreeTextLength caps description and historical context so a full
	// analysis stays within one Telegram message.
	maxFreeTextLength = 1200
	maxFieldLength    = 300
)

var compareLabels = map[stamp.CompareField]string{
	stamp.CompareValue:     "Wert",
	stamp.CompareOrigin:    "Herkunft",
	stamp.CompareYear:      "Jahr",
	stamp.CompareCondition: "Zustand",
	stamp.CompareRarity:    "Seltenheit",
	stamp.ComparePrinting:  "Druckverfahren",
	stamp.ComparePaper:     "Papier",
}

func writeField(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(sb, "*%s:* %s\n", label, escapeMarkdown(truncate(value, maxFieldLength)))
}

// writeCondition renders the condition as labeled sub-fields when any were
// recognized, otherwise as the raw text.
func writeCondition(sb *strings.Builder, condition string) {
	fields, ok := stamp.ExtractConditionFields(condition)
	if !ok {
		writeField(sb, "Zustand", condition)
		return
	}
	sb.WriteString("*Zustand:*\n")
	for _, f := range fields {
		fmt.Fprintf(sb, "  • %s: %s\n", f.Label, escapeMarkdown(truncate(f.Value, maxFieldLength)))
	}
}

func writeDetails(sb *strings.Builder, historical, printing, paper, cancellation *string) {
	writeField(sb, "Druckverfahren", stamp.Deref(printing))
	writeField(sb, "Papier", stamp.Deref(paper))
	writeField(sb, "Entwertung", stamp.Deref(cancellation))
	if h := stamp.Deref(historical); strings.TrimSpace(h) != "" {
		fmt.Fprintf(sb, "\n📜 *Historischer Kontext*\n%s\n", escapeMarkdown(truncate(h, maxFreeTextLength)))
	}
}

// formatAnalysis renders a fresh scanner result.
func formatAnalysis(a stamp.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 *%s*\n\n", escapeMarkdown(truncate(a.Name, maxFieldLength)))
	writeField(&sb, "Herkunft", a.Origin)
	writeField(&sb, "Jahr", a.Year)
	writeField(&sb, "Geschätzter Wert", a.EstimatedValue)
	writeField(&sb, "Seltenheit", a.Rarity)
	writeCondition(&sb, a.Condition)
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", escapeMarkdown(truncate(a.Description, maxFreeTextLength)))
	}
	writeDetails(&sb, a.HistoricalContext, a.PrintingMethod, a.PaperType, a.CancellationType)
	return strings.TrimSpace(sb.String())
}

// formatStampDetails renders a saved record with its expert data.
func formatStampDetails(s stamp.Stamp) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n`%s` · %s · %s\n\n", escapeMarkdown(truncate(s.Name, maxFieldLength)), s.ID, escapeMarkdown(s.Album), s.ExpertStatus.Label())
	writeField(&sb, "Herkunft", s.Origin)
	writeField(&sb, "Jahr", s.Year)
	if s.HasExpertValuation() {
		writeField(&sb, "Expertenwert", s.ExpertValuation)
		writeField(&sb, "KI-Schätzung", s.EstimatedValue)
	} else {
		writeField(&sb, "Geschätzter Wert", s.EstimatedValue)
	}
	writeField(&sb, "Seltenheit", s.Rarity)
	writeCondition(&sb, s.Condition)
	if s.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", escapeMarkdown(truncate(s.Description, maxFreeTextLength)))
	}
	writeDetails(&sb, s.HistoricalContext, s.PrintingMethod, s.PaperType, s.CancellationType)
	if s.ExpertNote != "" {
		fmt.Fprintf(&sb, "\n🏅 *Gutachten:* %s\n", escapeMarkdown(truncate(s.ExpertNote, maxFieldLength)))
	}
	fmt.Fprintf(&sb, "\nErfasst am %s", s.DateAdded.Format("02.01.2006"))
	return strings.TrimSpace(sb.String())
}

// formatStampLine is the one-line listing entry.
func formatStampLine(s stamp.Stamp) string {
	meta := []string{}
	for _, v := range []string{s.Origin, s.Year} {
		if strings.TrimSpace(v) != "" {
			meta = append(meta, escapeMarkdown(v))
		}
	}
	line := fmt.Sprintf("`%s` *%s*", s.ID, escapeMarkdown(s.Name))
	if len(meta) > 0 {
		line += " (" + strings.Join(meta, ", ") + ")"
	}
	value := stamp.EffectiveValue(s)
	if value == "" {
		value = emptyValue
	}
	return line + " · " + escapeMarkdown(value) + " · " + s.ExpertStatus.Label()
}

func formatSummary(sum stamp.Summary, counts map[stamp.ExpertStatus]int, albums int) string {
	var sb strings.Builder
	sb.WriteString("📊 *Deine Sammlung*\n\n")
	fmt.Fprintf(&sb, "*Marken:* %d in %s\n", sum.Count, pluralize("Album", "Alben", albums))
	fmt.Fprintf(&sb, "*Gesamtwert:* %s\n", stamp.FormatEuro(sum.TotalValue))
	fmt.Fprintf(&sb, "*%s:* %d · *%s:* %d · *%s:* %d\n",
		stamp.StatusAppraised.Label(), counts[stamp.StatusAppraised],
		stamp.StatusPending.Label(), counts[stamp.StatusPending],
		stamp.StatusNone.Label(), counts[stamp.StatusNone],
	)
	if len(sum.TopOrigins) > 0 {
		sb.WriteString("\n*Herkunft*\n")
		for _, o := range sum.TopOrigins {
			origin := o.Origin
			if strings.TrimSpace(origin) == "" {
				origin = "Unbekannt"
			}
			fmt.Fprintf(&sb, "• %s: %d (%.0f%%)\n", escapeMarkdown(origin), o.Count, o.Percent)
		}
	}
	return strings.TrimSpace(sb.String())
}

func formatComparison(c stamp.Comparison) string {
	var sb strings.Builder
	sb.WriteString("⚖️ *Vergleich*\n\n")
	for i, s := range c.Stamps {
		fmt.Fprintf(&sb, "%d. *%s* `%s`\n", i+1, escapeMarkdown(s.Name), s.ID)
	}
	for _, f := range stamp.CompareFields {
		marker := ""
		if c.Diverse[f] {
			marker = " ⚡"
		}
		fmt.Fprintf(&sb, "\n*%s*%s\n", compareLabels[f], marker)
		for i, s := range c.Stamps {
			v := stamp.FieldValue(s, f)
			if strings.TrimSpace(v) == "" {
				v = emptyValue
			}
			fmt.Fprintf(&sb, "%d. %s\n", i+1, escapeMarkdown(v))
		}
	}
	sb.WriteString("\n" + MsgCompareDiverseNote)
	return sb.String()
}
