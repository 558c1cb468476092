package model

// Bill represents a legislative proposal (proposição)
type Bill struct {
	ID          int     `json:"id"`
	ExternalID  string  `json:"external_id"`
	TypeCode    string  `json:"type_code"`
	Year        int     `json:"year"`
	Summary     *string `json:"summary"`
	PresentedAt *string `json:"presented_at"`
	Status      *string `json:"status"`
	DocumentURL *string `json:"document_url"`
}

// BillVotingLink pairs one bill with one voting session
type BillVotingLink struct {
	ID        int `json:"id"`
	BillID    int `json:"bill_id"`
	SessionID int `json:"session_id"`
}

// BillFilter narrows bill listings. Type is matched exactly after upper-casing.
type BillFilter struct {
	Year *int   `query:"year" validate:"omitempty,min=1900,max=2100"`
	Type string `query:"type" validate:"omitempty,max=10"`
}

// LinkFilter narrows bill/session link listings.
type LinkFilter struct {
	BillID    *int `query:"bill_id" validate:"omitempty,min=1"`
	SessionID *int `query:"session_id" validate:"omitempty,min=1"`
}
