package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("edit: %w", Clone(ErrAttendanceLocked, ""))
	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "ATTENDANCE_LOCKED", appErr.Code)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
}

func TestIsComparesCodes(t *testing.T) {
	err := Clone(ErrNotFound, "student not found")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
	assert.False(t, Is(nil, ErrNotFound))
}
