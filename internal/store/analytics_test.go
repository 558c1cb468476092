package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/camara/internal/model"
)

func TestRankAlignment(t *testing.T) {
	ranks := []model.AlignmentRank{
		{PartyAcronym: "PL", AlignedVotes: 7, DecisiveVotes: 10},
		{PartyAcronym: "NOVO", AlignedVotes: 0, DecisiveVotes: 0},
		{PartyAcronym: "PT", AlignedVotes: 4, DecisiveVotes: 4},
		{PartyAcronym: "MDB", AlignedVotes: 14, DecisiveVotes: 20},
	}

	got := rankAlignment(ranks)

	require.Len(t, got, 3)
	assert.Equal(t, "PT", got[0].PartyAcronym)
	assert.Equal(t, 100.0, got[0].AlignmentPercentage)
	// equal percentages fall back to acronym order
	assert.Equal(t, "MDB", got[1].PartyAcronym)
	assert.Equal(t, "PL", got[2].PartyAcronym)
	assert.Equal(t, 70.0, got[2].AlignmentPercentage)
}

func TestRankAlignmentEmpty(t *testing.T) {
	got := rankAlignment(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBuildCohesion(t *testing.T) {
	c := buildCohesion([]voteCount{
		{voteType: "Sim", total: 2},
		{voteType: "Não", total: 1},
	})

	assert.Equal(t, 3, c.TotalPartyVotes)
	require.Len(t, c.Distribution, 2)
	assert.Equal(t, 66.67, c.Distribution[0].Percentage)
	assert.Equal(t, 33.33, c.Distribution[1].Percentage)

	sum := 0.0
	for _, share := range c.Distribution {
		sum += share.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.01)
}

func TestBuildCohesionWithoutVotes(t *testing.T) {
	c := buildCohesion(nil)

	assert.Equal(t, 0, c.TotalPartyVotes)
	assert.NotNil(t, c.Distribution)
	assert.Empty(t, c.Distribution)
}

func TestPerLegislator(t *testing.T) {
	assert.Equal(t, 10000.0, perLegislator(30000, 3))
	assert.Equal(t, 4000.0, perLegislator(8000, 2))
	assert.Equal(t, 3333.33, perLegislator(10000, 3))
	assert.Equal(t, 0.0, perLegislator(500, 0))
}

func TestYearPrefix(t *testing.T) {
	assert.Equal(t, "2024%", yearPrefix(2024))
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "v.id, v.session_id, v.vote_type", qualify("v", "id, session_id, vote_type"))
}

func TestBuildingFilterLabel(t *testing.T) {
	assert.Equal(t, "all", buildingFilterLabel(""))
	assert.Equal(t, "Anexo IV", buildingFilterLabel("Anexo IV"))
	assert.Equal(t, "", inBuilding(""))
	assert.Equal(t, " in building 'Anexo IV'", inBuilding("Anexo IV"))
}
