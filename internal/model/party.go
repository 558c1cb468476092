package model

// Party represents a political party
type Party struct {
	ID            int     `json:"id"`
	ExternalID    int     `json:"external_id"`
	Acronym       string  `json:"acronym"`
	Name          string  `json:"name"`
	LogoURL       *string `json:"logo_url"`
	LegislatureID *int    `json:"legislature_id"`
	Status        *string `json:"status"`
	TotalMembers  *int    `json:"total_members"`
	TotalSwornIn  *int    `json:"total_sworn_in"`
}

// PartyFilter narrows party listings. Text fields are case-insensitive
// substring matches; member bounds apply to the sworn-in count.
type PartyFilter struct {
	Acronym    string `query:"acronym" validate:"omitempty,max=50"`
	Name       string `query:"name" validate:"omitempty,max=255"`
	Status     string `query:"status" validate:"omitempty,max=50"`
	MinMembers *int   `query:"min_members" validate:"omitempty,min=0"`
	MaxMembers *int   `query:"max_members" validate:"omitempty,min=0"`
}
