package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConversionRuleName identifies a burn-to-mint conversion rule
type ConversionRuleName string

const (
	ConversionIdentity  ConversionRuleName = "identity"
	ConversionFixedRate ConversionRuleName = "fixed_rate"
	ConversionRescale   ConversionRuleName = "rescale"
)

// ConversionRule maps a burn amount to the amount owed on the target chain.
// Implementations must be pure: the same input always yields the same output.
type ConversionRule interface {
	Name() ConversionRuleName
	Convert(burnAmount decimal.Decimal) (decimal.Decimal, error)
}

// IdentityRule mints exactly what was burned
type IdentityRule struct{}

func (IdentityRule) Name() ConversionRuleName { return ConversionIdentity }

func (IdentityRule) Convert(burnAmount decimal.Decimal) (decimal.Decimal, error) {
	return burnAmount, nil
}

// FixedRateRule multiplies by Rate and truncates toward zero at Places decimals
type FixedRateRule struct {
	Rate   decimal.Decimal
	Places int32
}

func (r FixedRateRule) Name() ConversionRuleName { return ConversionFixedRate }

func (r FixedRateRule) Convert(burnAmount decimal.Decimal) (decimal.Decimal, error) {
	if !r.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("conversion rate must be positive, got %s", r.Rate)
	}
	return burnAmount.Mul(r.Rate).Truncate(r.Places), nil
}

// RescaleRule re-expresses raw units of SourceDecimals precision as raw units of TargetDecimals precision.
// Fractions of a target unit are dropped.
type RescaleRule struct {
	SourceDecimals int32
	TargetDecimals int32
}

func (r RescaleRule) Name() ConversionRuleName { return ConversionRescale }

func (r RescaleRule) Convert(burnAmount decimal.Decimal) (decimal.Decimal, error) {
	return burnAmount.Shift(r.TargetDecimals - r.SourceDecimals).Truncate(0), nil
}

// NewConversionRule builds a rule from its configured name and parameters
func NewConversionRule(name ConversionRuleName, rate string, sourceDecimals, targetDecimals int32) (ConversionRule, error) {
	switch name {
	case ConversionIdentity, "":
		return IdentityRule{}, nil
	case ConversionFixedRate:
		r, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("invalid conversion rate %q: %w", rate, err)
		}
		if !r.IsPositive() {
			return nil, fmt.Errorf("conversion rate must be positive, got %s", rate)
		}
		return FixedRateRule{Rate: r, Places: targetDecimals}, nil
	case ConversionRescale:
		if sourceDecimals < 0 || targetDecimals < 0 {
			return nil, fmt.Errorf("decimals must not be negative (source=%d, target=%d)", sourceDecimals, targetDecimals)
		}
		return RescaleRule{SourceDecimals: sourceDecimals, TargetDecimals: targetDecimals}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownConversionRule, name)
	}
}
