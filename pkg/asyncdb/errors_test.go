package asyncdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"invalid config", ErrInvalidConfig, ExitConfigError},
		{"connection failed", ErrConnectionFailed, ExitConnectionError},
		{"conn closed", ErrConnClosed, ExitUsageError},
		{"cursor closed", ErrCursorClosed, ExitUsageError},
		{"execution failed", ErrExecutionFailed, ExitExecutionFailed},
		{"wrapped sentinel", fmt.Errorf("statement: %w", ErrExecutionFailed), ExitExecutionFailed},
		{"sentinel wrapping a client error", fmt.Errorf("%w: %w", ErrExecutionFailed, errors.New("near \"SELEKT\": syntax error")), ExitExecutionFailed},
		{"connection refused pattern", errors.New("dial tcp: connection refused"), ExitConnectionError},
		{"no such host pattern", errors.New("lookup db.internal: no such host"), ExitConnectionError},
		{"unclassified", errors.New("something odd"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}
