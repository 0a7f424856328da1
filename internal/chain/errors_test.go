package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-burn-mint/internal/domain"
)

type codedError struct{ code int }

func (e codedError) Error() string  { return fmt.Sprintf("rpc error %d", e.code) }
func (e codedError) ErrorCode() int { return e.code }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		rejected  bool
	}{
		{"nil", nil, false, false},
		{"deadline", context.DeadlineExceeded, true, false},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true, false},
		{"rate limited", errors.New("429 Too Many Requests"), true, false},
		{"nonce too low", errors.New("nonce too low"), true, false},
		{"reverted message", errors.New("execution reverted: duplicate burn"), false, true},
		{"reverted code", codedError{code: 3}, false, true},
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), false, true},
		{"unknown", errors.New("something odd"), true, false},
		{"already classified", domain.NewRejectedError("x", errors.New("y")), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("op", tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.transient, domain.IsTransient(got))
			assert.Equal(t, tt.rejected, domain.IsRejected(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
