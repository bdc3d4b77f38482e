package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromPassesThroughAppErrors(t *testing.T) {
	orig := SlotTaken()
	wrapped := fmt.Errorf("reserve: %w", orig)

	got := From(wrapped)
	assert.Equal(t, CodeSlotTaken, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.Status)
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	got := From(fmt.Errorf("connection reset"))
	assert.Equal(t, CodePersistence, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.NotContains(t, got.Message, "connection reset")
}

func TestIsMatchesOnCode(t *testing.T) {
	assert.ErrorIs(t, fmt.Errorf("outer: %w", Immutable("completed")), Immutable("cancelled"))
	assert.NotErrorIs(t, SlotTaken(), PastDate())
}
