package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestIsMatchesByCode(t *testing.T) {
	cloned := Clone(ErrSeatTaken, "seat 4 already taken")
	wrapped := fmt.Errorf("approve: %w", cloned)

	assert.True(t, Is(wrapped, ErrSeatTaken))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(nil, ErrSeatTaken))
	assert.Equal(t, "seat 4 already taken", FromError(wrapped).Message)
}
