package llm

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/genai"
)

// ErrorKind categorizes analysis failures for user-facing messages.
type ErrorKind string

const (
	KindEmptyResponse     ErrorKind = "empty_response"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindSafetyBlocked     ErrorKind = "safety_blocked"
	KindNetwork           ErrorKind = "network"
	KindQualityOrUnknown  ErrorKind = "quality_or_unknown"
)

// AnalysisError is returned by every failed analysis.
type AnalysisError struct {
	Kind    ErrorKind
	Message string // German, shown to the user
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newAnalysisError(kind ErrorKind, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: UserMessage(kind), Err: err}
}

// UserMessage returns the message shown to the user for a failure kind.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindEmptyResponse:
		return "Die KI hat keine lesbaren Daten zurückgegeben."
	case KindMalformedResponse:
		return "Das KI-Ergebnis konnte nicht verarbeitet werden."
	case KindSafetyBlocked:
		return "Die Analyse wurde aufgrund von Sicherheitsrichtlinien blockiert. Bitte stellen Sie sicher, dass das Bild nur eine Briefmarke zeigt."
	case KindNetwork:
		return "Der KI-Dienst ist nicht erreichbar. Bitte prüfen Sie Ihre Netzwerkverbindung und versuchen Sie es erneut."
	default:
		return "Analyse fehlgeschlagen. Bitte Bildqualität prüfen."
	}
}

// RemediationTips are shown below every analysis failure.
var RemediationTips = []string{
	"Prüfen Sie die Beleuchtung: Vermeiden Sie harte Schatten und Reflexionen auf Schutzfolien.",
	"Optimieren Sie den Fokus: Die Zähnung und Details sollten scharf abgebildet sein.",
	"Nutzen Sie Kontrast: Legen Sie die Marke auf einen dunklen, matten Hintergrund (z.B. ein Einsteckbuch).",
}

var (
	safetyMarkers  = []string{"SAFETY", "Sicherheitsrichtlinien"}
	networkMarkers = []string{"Netzwerk", "verbinden", "network", "connection"}
)

// Classify categorizes an underlying failure. Typed errors are checked first;
// the error text is only inspected when nothing typed matches.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 502, 503, 504:
			return KindNetwork
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := err.Error()
	for _, m := range safetyMarkers {
		if strings.Contains(msg, m) {
			return KindSafetyBlocked
		}
	}
	lower := strings.ToLower(msg)
	for _, m := range networkMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return KindNetwork
		}
	}
	return KindQualityOrUnknown
}

// KindOf returns the kind of an AnalysisError anywhere in err's chain, or
// classifies err otherwise.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Classify(err)
}
