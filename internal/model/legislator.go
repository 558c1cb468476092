package model

// Legislator represents a deputy tracked by the system
type Legislator struct {
	ID            int     `json:"id"`
	ExternalID    int     `json:"external_id"`
	CivilName     *string `json:"civil_name"`
	DisplayName   string  `json:"display_name"`
	PartyAcronym  string  `json:"party_acronym"`
	PartyID       *int    `json:"party_id"`
	State         string  `json:"state"`
	LegislatureID *int    `json:"legislature_id"`
	PhotoURL      *string `json:"photo_url"`
	Sex           *string `json:"sex"`
	Office        *Office `json:"office"`
}

// Office is the physical workspace assigned to exactly one legislator
type Office struct {
	ID           int     `json:"id"`
	LegislatorID int     `json:"legislator_id"`
	Name         *string `json:"name"`
	Building     *string `json:"building"`
	Room         string  `json:"room"`
	Floor        *string `json:"floor"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
}

// LegislatorFilter narrows legislator listings. Codes are matched exactly
// after upper-casing.
type LegislatorFilter struct {
	State string `query:"state" validate:"omitempty,len=2,alpha"`
	Sex   string `query:"sex" validate:"omitempty,oneof=M F m f"`
	Party string `query:"party" validate:"omitempty,max=50"`
}

// OfficeFilter narrows office listings with case-insensitive substring matches.
type OfficeFilter struct {
	Building string `query:"building" validate:"omitempty,max=100"`
	Floor    string `query:"floor" validate:"omitempty,max=20"`
}

// LegislatorSummary is a legislator's participation and spending at a glance
type LegislatorSummary struct {
	ID            int     `json:"id"`
	Year          int     `json:"year"`
	SessionsVoted int     `json:"sessions_voted"`
	TotalExpenses float64 `json:"total_expenses"`
}
