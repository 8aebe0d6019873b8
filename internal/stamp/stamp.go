// Package stamp holds the stamp record model and the pure operations the
// rest of the bot derives from it: value parsing, condition extraction,
// querying, comparison, appraisal transitions and export.
package stamp

import (
	"strings"
	"time"
)

// ExpertStatus marks whether a record's valuation is AI-only, waiting for an
// expert, or confirmed by one.
type ExpertStatus string

const (
	StatusNone      ExpertStatus = "none"
	StatusPending   ExpertStatus = "pending"
	StatusAppraised ExpertStatus = "appraised"
)

// Valid reports whether s is one of the known statuses.
func (s ExpertStatus) Valid() bool {
	switch s {
	case StatusNone, StatusPending, StatusAppraised:
		return true
	}
	return false
}

// Label returns the German label shown to the user.
func (s ExpertStatus) Label() string {
	switch s {
	case StatusAppraised:
		return "Zertifiziert"
	case StatusPending:
		return "In Prüfung"
	default:
		return "Nur KI"
	}
}

// Stamp is one catalogued stamp. Field names in JSON match the backup format
// so exported collections can be restored.
type Stamp struct {
	ID             string       `json:"id"`
	Image          string       `json:"image"` // data URI
	Name           string       `json:"name"`
	Origin         string       `json:"origin"`
	Year           string       `json:"year"`
	EstimatedValue string       `json:"estimatedValue"`
	Rarity         string       `json:"rarity"`
	Condition      string       `json:"condition"`
	Description    string       `json:"description"`
	DateAdded      time.Time    `json:"dateAdded"`
	ExpertStatus   ExpertStatus `json:"expertStatus"`
	Album          string       `json:"album"`

	ExpertValuation string `json:"expertValuation,omitempty"`
	ExpertNote      string `json:"expertNote,omitempty"`

	// Filled by analysis; nil until an analysis returned a non-empty value.
	HistoricalContext *string `json:"historicalContext,omitempty"`
	PrintingMethod    *string `json:"printingMethod,omitempty"`
	PaperType         *string `json:"paperType,omitempty"`
	CancellationType  *string `json:"cancellationType,omitempty"`
}

// Analysis is a normalized AI analysis result. The required fields are always
// set; the optional ones are nil when the model did not provide them.
type Analysis struct {
	Name           string `json:"name"`
	Origin         string `json:"origin"`
	Year           string `json:"year"`
	EstimatedValue string `json:"estimatedValue"`
	Rarity         string `json:"rarity"`
	Condition      string `json:"condition"`
	Description    string `json:"description"`

	HistoricalContext *string `json:"historicalContext,omitempty"`
	PrintingMethod    *string `json:"printingMethod,omitempty"`
	PaperType         *string `json:"paperType,omitempty"`
	CancellationType  *string `json:"cancellationType,omitempty"`
}

// HasExpertValuation reports whether the record carries a non-blank expert
// valuation, regardless of its current status.
func (s Stamp) HasExpertValuation() bool {
	return strings.TrimSpace(s.ExpertValuation) != ""
}

// NewStamp builds the record saved by the scanner flow. ID and DateAdded are
// assigned by the collection when the record is added.
func NewStamp(imageURI, album string, a Analysis) Stamp {
	return Stamp{
		Image:             imageURI,
		Name:              a.Name,
		Origin:            a.Origin,
		Year:              a.Year,
		EstimatedValue:    a.EstimatedValue,
		Rarity:            a.Rarity,
		Condition:         a.Condition,
		Description:       a.Description,
		ExpertStatus:      StatusNone,
		Album:             album,
		HistoricalContext: a.HistoricalContext,
		PrintingMethod:    a.PrintingMethod,
		PaperType:         a.PaperType,
		CancellationType:  a.CancellationType,
	}
}

// ApplyAnalysis merges a re-analysis into an existing record and returns the
// updated copy. Optional fields the new analysis did not produce keep their
// previous value. A record with an expert valuation keeps it as the estimated
// value, also after a rejection.
func ApplyAnalysis(prior Stamp, a Analysis) Stamp {
	updated := prior
	updated.Name = a.Name
	updated.Origin = a.Origin
	updated.Year = a.Year
	updated.Rarity = a.Rarity
	updated.Condition = a.Condition
	updated.Description = a.Description

	updated.EstimatedValue = a.EstimatedValue
	if prior.HasExpertValuation() {
		updated.EstimatedValue = prior.ExpertValuation
	}

	if a.HistoricalContext != nil {
		updated.HistoricalContext = a.HistoricalContext
	}
	if a.PrintingMethod != nil {
		updated.PrintingMethod = a.PrintingMethod
	}
	if a.PaperType != nil {
		updated.PaperType = a.PaperType
	}
	if a.CancellationType != nil {
		updated.CancellationType = a.CancellationType
	}
	return updated
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
