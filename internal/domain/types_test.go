package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObligationStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ObligationStatus
		wantErr  bool
	}{
		{name: "pending", input: "pending", expected: ObligationStatusPending},
		{name: "upper case", input: "CONFIRMED", expected: ObligationStatusConfirmed},
		{name: "padded", input: " failed ", expected: ObligationStatusFailed},
		{name: "unknown", input: "minted", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := ParseObligationStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestParseFailureKind(t *testing.T) {
	kind, err := ParseFailureKind("exhausted")
	require.NoError(t, err)
	assert.Equal(t, FailureKindExhausted, kind)

	kind, err = ParseFailureKind("all")
	require.NoError(t, err)
	assert.Equal(t, FailureKindNone, kind)

	_, err = ParseFailureKind("timeout")
	assert.Error(t, err)
}

func TestValidateBurnRecord(t *testing.T) {
	valid := BurnRecord{
		BurnID:           "sig-1",
		DepositorAddress: "0x457ee5f723C7606c12a7264b52e285906F91eEA6",
		BurnAmount:       decimal.NewFromInt(100),
		ObservedAt:       time.Unix(1, 0).UTC(),
	}

	tests := []struct {
		name    string
		mutate  func(*BurnRecord)
		wantErr error
	}{
		{name: "valid", mutate: func(*BurnRecord) {}},
		{name: "zero amount", mutate: func(r *BurnRecord) { r.BurnAmount = decimal.Zero }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(r *BurnRecord) { r.BurnAmount = decimal.NewFromInt(-5) }, wantErr: ErrInvalidAmount},
		{name: "decode error", mutate: func(r *BurnRecord) { r.DecodeError = "amount \"abc\" is not a number" }, wantErr: ErrInvalidAmount},
		{name: "bad address", mutate: func(r *BurnRecord) { r.DepositorAddress = "not-an-address" }, wantErr: ErrInvalidAddress},
		{name: "empty address", mutate: func(r *BurnRecord) { r.DepositorAddress = "" }, wantErr: ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			err := ValidateBurnRecord(rec, AddressFormatEVM)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "sig-1", ve.BurnID)
		})
	}
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("connection reset")

	transient := NewTransientError("submit", cause)
	assert.True(t, IsTransient(transient))
	assert.False(t, IsRejected(transient))
	assert.ErrorIs(t, transient, cause)

	rejected := NewRejectedError("execution reverted", nil)
	assert.True(t, IsRejected(rejected))
	assert.Equal(t, "mint rejected: execution reverted", rejected.Error())

	storage := NewStorageError("claim", cause)
	assert.True(t, IsStorage(storage))
	assert.Nil(t, NewStorageError("claim", nil))
	// Already-classified errors are not wrapped twice
	assert.Same(t, storage, NewStorageError("outer", storage))
}
