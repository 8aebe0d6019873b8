package stamp

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numericPrefix matches the leading number of a cleaned value string. Trailing
// garbage such as a second decimal point is ignored.
var numericPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

var germanPrinter = message.NewPrinter(language.German)

// ParseValue converts a free-text currency string such as "1.250,00 €" or
// "$1,250.00" into a number. Whichever of '.' and ',' occurs last is the
// decimal separator; a lone ',' is a decimal comma. Unparseable input yields 0.
func ParseValue(text string) float64 {
	if text == "" {
		return 0
	}

	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, text)
	if clean == "" {
		return 0
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		}
	case lastComma >= 0:
		clean = strings.Replace(clean, ",", ".", 1)
	}

	m := numericPrefix.FindString(clean)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// EffectiveValue returns the value string that counts for display, totals
// and sorting: the expert valuation when set, otherwise the AI estimate.
func EffectiveValue(s Stamp) string {
	if s.HasExpertValuation() {
		return s.ExpertValuation
	}
	return s.EstimatedValue
}

// FormatEuro renders v in German notation, e.g. "€1.234,56".
func FormatEuro(v float64) string {
	return "€" + germanPrinter.Sprintf("%.2f", v)
}
