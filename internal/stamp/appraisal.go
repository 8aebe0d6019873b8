package stamp

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultExpertNote is stored when an expert submits an appraisal without a note.
const DefaultExpertNote = "Bestätigtes Original nach fachmännischer Begutachtung."

// ErrInvalidTransition is returned when an expert status change is not
// allowed from the record's current status.
var ErrInvalidTransition = errors.New("invalid expert status transition")

// RequestAppraisal queues a record for expert review.
// Allowed from none and from appraised (re-review).
func RequestAppraisal(s Stamp) (Stamp, error) {
	if s.ExpertStatus == StatusPending {
		return s, fmt.Errorf("%w: %s is already pending", ErrInvalidTransition, s.ID)
	}
	s.ExpertStatus = StatusPending
	return s, nil
}

// SubmitAppraisal records an expert valuation. A blank valuation keeps the
// current AI estimate, a blank note uses DefaultExpertNote.
func SubmitAppraisal(s Stamp, valuation, note string) Stamp {
	valuation = strings.TrimSpace(valuation)
	if valuation == "" {
		valuation = s.EstimatedValue
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = DefaultExpertNote
	}
	s.ExpertStatus = StatusAppraised
	s.ExpertValuation = valuation
	s.ExpertNote = note
	return s
}

// RejectAppraisal returns a pending record to AI-only status. Any expert
// valuation and note from an earlier appraisal are kept.
func RejectAppraisal(s Stamp) (Stamp, error) {
	if s.ExpertStatus != StatusPending {
		return s, fmt.Errorf("%w: %s is %s, not pending", ErrInvalidTransition, s.ID, s.ExpertStatus)
	}
	s.ExpertStatus = StatusNone
	return s, nil
}
