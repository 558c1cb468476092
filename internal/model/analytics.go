package model

import "math"

// Round2 rounds v to two decimal places for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percentage returns part/whole*100 rounded to two decimals, or 0 when whole
// is not positive.
func Percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(whole) * 100)
}

// LegislatorExpenseRank is one row of the expense ranking
type LegislatorExpenseRank struct {
	ID            int     `json:"id"`
	ExternalID    int     `json:"external_id"`
	DisplayName   string  `json:"display_name"`
	PartyAcronym  string  `json:"party_acronym"`
	State         string  `json:"state"`
	PhotoURL      *string `json:"photo_url"`
	Sex           *string `json:"sex"`
	TotalExpenses float64 `json:"total_expenses"`
}

// PartyExpenseRank is one row of the party expense ranking
type PartyExpenseRank struct {
	ID            int     `json:"id"`
	ExternalID    int     `json:"external_id"`
	Acronym       string  `json:"acronym"`
	Name          string  `json:"name"`
	TotalExpenses float64 `json:"total_expenses"`
}

// ParticipationRank counts the sessions and bills a legislator voted on
type ParticipationRank struct {
	ID            int    `json:"id"`
	DisplayName   string `json:"display_name"`
	PartyAcronym  string `json:"party_acronym"`
	State         string `json:"state"`
	SessionsVoted int    `json:"sessions_voted"`
	BillsVoted    int    `json:"bills_voted"`
}

// VoteTypeRank counts one vote value cast by a party's legislators
type VoteTypeRank struct {
	PartyAcronym string   `json:"party_acronym"`
	PartyName    string   `json:"party_name"`
	VoteType     VoteType `json:"vote_type"`
	TotalVotes   int      `json:"total_votes"`
}

// AlignmentRank measures how often a party voted with the final outcome
type AlignmentRank struct {
	PartyAcronym        string  `json:"party_acronym"`
	PartyName           string  `json:"party_name"`
	AlignedVotes        int     `json:"aligned_votes"`
	DecisiveVotes       int     `json:"decisive_votes"`
	AlignmentPercentage float64 `json:"alignment_percentage"`
}

// MostVotedBill is a bill with the number of sessions it was voted in
type MostVotedBill struct {
	ID            int     `json:"id"`
	ExternalID    string  `json:"external_id"`
	TypeCode      string  `json:"type_code"`
	Year          int     `json:"year"`
	Summary       *string `json:"summary"`
	TotalSessions int     `json:"total_sessions"`
}

// VoteShare is the count and share of one vote value
type VoteShare struct {
	VoteType   string  `json:"vote_type"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// PartyCohesion is a party's vote distribution in one session
type PartyCohesion struct {
	PartyAcronym       string      `json:"party_acronym"`
	SessionID          int         `json:"session_id"`
	SessionDescription string      `json:"session_description"`
	TotalPartyVotes    int         `json:"total_party_votes"`
	Distribution       []VoteShare `json:"distribution"`
}

// FloorSpending aggregates expenses of legislators sharing a floor
type FloorSpending struct {
	Building             *string `json:"building"`
	Floor                *string `json:"floor"`
	TotalSpent           float64 `json:"total_spent"`
	AveragePerLegislator float64 `json:"average_per_legislator"`
	Legislators          int     `json:"legislators"`
}

// FloorPartyComposition counts a party's legislators on a floor
type FloorPartyComposition struct {
	PartyAcronym string `json:"party_acronym"`
	PartyName    string `json:"party_name"`
	Legislators  int    `json:"legislators"`
}

// FloorPartyProfile is one party's presence and spending on a floor
type FloorPartyProfile struct {
	PartyAcronym         string  `json:"party_acronym"`
	PartyName            string  `json:"party_name"`
	Legislators          int     `json:"legislators"`
	TotalSpent           float64 `json:"total_spent"`
	AveragePerLegislator float64 `json:"average_per_legislator"`
}

// FloorProfile combines composition and spending for a floor
type FloorProfile struct {
	Floor          string              `json:"floor"`
	Year           int                 `json:"year"`
	BuildingFilter string              `json:"building_filter"`
	Parties        []FloorPartyProfile `json:"parties"`
}

// StateSpending aggregates expenses of a state's legislators
type StateSpending struct {
	State          string  `json:"state"`
	TotalSpent     float64 `json:"total_spent"`
	AverageExpense float64 `json:"average_expense"`
	Expenses       int     `json:"expenses"`
	Legislators    int     `json:"legislators"`
}
