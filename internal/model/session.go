package model

// Outcome is the tri-state result of a voting session
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeUnknown  Outcome = "unknown"
)

// Stored approval flags as published by the open-data API.
const (
	ApprovalApproved = "1"
	ApprovalRejected = "0"
)

// ParseOutcome maps the stored approval flag to an Outcome.
func ParseOutcome(approval *string) Outcome {
	if approval == nil {
		return OutcomeUnknown
	}
	switch *approval {
	case ApprovalApproved:
		return OutcomeApproved
	case ApprovalRejected:
		return OutcomeRejected
	default:
		return OutcomeUnknown
	}
}

// VotingSession is a recorded floor vote event. RegisteredAt is kept as the
// free text published upstream.
type VotingSession struct {
	ID                     int     `json:"id"`
	ExternalID             string  `json:"external_id"`
	RegisteredAt           *string `json:"registered_at"`
	Description            string  `json:"description"`
	Committee              *string `json:"committee"`
	Approval               *string `json:"approval"`
	Outcome                Outcome `json:"outcome"`
	LastOpeningDescription *string `json:"last_opening_description"`
	URI                    *string `json:"uri"`
}

// SessionFilter narrows session listings. Committee is matched exactly after
// upper-casing.
type SessionFilter struct {
	Committee string `query:"committee" validate:"omitempty,max=100"`
}
