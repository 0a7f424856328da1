package domain

import (
	"fmt"
)

// ValidateBurnRecord checks a burn record can become an obligation.
// It returns a *ValidationError describing the first defect found.
func ValidateBurnRecord(rec BurnRecord, format AddressFormat) error {
	if rec.DecodeError != "" {
		return &ValidationError{BurnID: rec.BurnID, Err: ErrInvalidAmount, Detail: rec.DecodeError}
	}
	if !rec.BurnAmount.IsPositive() {
		return &ValidationError{
			BurnID: rec.BurnID,
			Err:    ErrInvalidAmount,
			Detail: fmt.Sprintf("burn amount must be positive, got %s", rec.BurnAmount.String()),
		}
	}
	if err := ValidateAddress(format, rec.DepositorAddress); err != nil {
		return &ValidationError{BurnID: rec.BurnID, Err: err}
	}
	return nil
}
