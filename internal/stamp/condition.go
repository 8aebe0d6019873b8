package stamp

import (
	"regexp"
	"strings"
)

// ConditionField is one labeled sub-field found in a condition description.
type ConditionField struct {
	Label string
	Value string
}

// ConditionLabels are the recognized categories, in display order.
var ConditionLabels = []string{"Zähnung", "Zentrierung", "Stempel", "Erhaltung", "Status", "Mängel"}

// conditionPatterns match "<label>: <value>" with an optional colon. The label
// must stand alone so "Stempel" does not fire inside "gestempelt". The value
// runs up to the next '.' or ';'.
var conditionPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(ConditionLabels))
	for i, label := range ConditionLabels {
		patterns[i] = regexp.MustCompile(`(?i)(?:^|[^\p{L}])` + regexp.QuoteMeta(label) + `(?:\s*:|\s)\s*([^.;]+)`)
	}
	return patterns
}()

// ExtractConditionFields pulls the labeled sub-fields out of a free-text
// condition. Fields come back in ConditionLabels order. The boolean is false
// when nothing was recognized, in which case callers show the raw text.
func ExtractConditionFields(text string) ([]ConditionField, bool) {
	var fields []ConditionField
	for i, re := range conditionPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		fields = append(fields, ConditionField{Label: ConditionLabels[i], Value: value})
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}
