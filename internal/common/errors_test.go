package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrConflict.WithDetails("This crush has already been declared.")

	assert.Equal(t, "This crush has already been declared.", detailed.Details)
	assert.Nil(t, ErrConflict.Details)
	assert.Equal(t, ErrConflict.Code, detailed.Code)
}

func TestErrorsIs_MatchesClonesByCode(t *testing.T) {
	detailed := ErrNotFound.WithDetails("User not found with this ID.")

	assert.ErrorIs(t, detailed, ErrNotFound)
	assert.NotErrorIs(t, detailed, ErrConflict)

	wrapped := fmt.Errorf("looking up declarer: %w", detailed)
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestIsAPIError(t *testing.T) {
	apiErr, ok := IsAPIError(ErrBadRequest.WithDetails("missing field"))
	assert.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)

	_, ok = IsAPIError(errors.New("plain"))
	assert.False(t, ok)
}
