package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"civicreport/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"validation", apperr.Validation("text is empty"), apperr.KindValidation},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("report %d not found", 7)), apperr.KindNotFound},
		{"foreign error", errors.New("boom"), apperr.KindInternal},
		{"conflict", apperr.Conflict("busy"), apperr.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestErrorsIsMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("transition: %w", apperr.InvalidTransition("report is RESOLVED"))

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NotErrorIs(t, err, apperr.ErrForbidden)
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New(`pq: relation "reports" does not exist`)
	err := apperr.Internal(cause)

	assert.NotContains(t, err.Error(), "pq:")
	assert.Equal(t, "internal error", apperr.Message(err))
	assert.ErrorIs(t, err, cause)
}
