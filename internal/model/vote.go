package model

import "strings"

// VoteType is one legislator's recorded choice, stored with the upstream label
type VoteType string

const (
	VoteYes         VoteType = "Sim"
	VoteNo          VoteType = "Não"
	VoteAbstention  VoteType = "Abstenção"
	VoteObstruction VoteType = "Obstrução"
	VoteAbsent      VoteType = "Ausente"
)

// VoteTypes lists the closed set of vote values.
var VoteTypes = []VoteType{VoteYes, VoteNo, VoteAbstention, VoteObstruction, VoteAbsent}

var voteAliases = map[string]VoteType{
	"yes":         VoteYes,
	"no":          VoteNo,
	"nao":         VoteNo,
	"abstention":  VoteAbstention,
	"abstencao":   VoteAbstention,
	"obstruction": VoteObstruction,
	"obstrucao":   VoteObstruction,
	"absent":      VoteAbsent,
}

// ParseVoteType resolves s case-insensitively against the stored labels,
// also accepting English names and unaccented spellings.
func ParseVoteType(s string) (VoteType, bool) {
	s = strings.TrimSpace(s)
	for _, vt := range VoteTypes {
		if strings.EqualFold(s, string(vt)) {
			return vt, true
		}
	}
	vt, ok := voteAliases[strings.ToLower(s)]
	return vt, ok
}

// IsDecisive reports whether the vote counts towards alignment.
func (v VoteType) IsDecisive() bool {
	return v == VoteYes || v == VoteNo
}

// Vote is one legislator's choice in one voting session. PartySnapshot is
// the legislator's party at the time of the vote.
type Vote struct {
	ID            int     `json:"id"`
	SessionID     int     `json:"session_id"`
	LegislatorID  int     `json:"legislator_id"`
	VoteType      string  `json:"vote_type"`
	RegisteredAt  *string `json:"registered_at"`
	PartySnapshot *string `json:"party_acronym_snapshot"`
	LegislatorURI *string `json:"legislator_uri"`
	SessionURI    *string `json:"session_uri"`
}
