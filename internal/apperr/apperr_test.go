package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("legislator %d not found", 7), KindNotFound},
		{"wrapped not found", fmt.Errorf("get legislator: %w", NotFound("x")), KindNotFound},
		{"bad request", BadRequest("invalid vote type %q", "Talvez"), KindBadRequest},
		{"plain error", errors.New("connection refused"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageEchoesIdentifier(t *testing.T) {
	err := NotFound("party with acronym '%s' not found", "XYZ")
	assert.Equal(t, "party with acronym 'XYZ' not found", err.Error())
	assert.True(t, IsNotFound(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "bad_request", KindBadRequest.String())
	assert.Equal(t, "internal", KindInternal.String())
}
