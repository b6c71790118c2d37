package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validate rejects inputs the engine would otherwise silently coerce to zero.
func (in CostInputs) Validate() error {
	var errs []error

	money := []struct {
		field string
		value float64
	}{
		{"fabric_main_cost", in.FabricMainCost},
		{"fabric_secondary_cost", in.FabricSecondaryCost},
		{"turha_main_cost", in.TurhaMainCost},
		{"turha_secondary_cost", in.TurhaSecondaryCost},
		{"embroidery_cost", in.EmbroideryCost},
		{"tailoring_cost", in.TailoringCost},
		{"packaging_cost", in.PackagingCost},
		{"delivery_cost", in.DeliveryCost},
		{"extra_expenses", in.ExtraExpenses},
		{"fixed_costs", in.FixedCosts},
		{"marketing_cost", in.MarketingCost},
	}
	for _, m := range money {
		if err := nonNegative(m.field, m.value); err != nil {
			errs = append(errs, err)
		}
	}

	if err := percent("profit_margin_percent", in.ProfitMarginPercent); err != nil {
		errs = append(errs, err)
	}

	switch in.MarketingMode {
	case MarketingFixed, "":
	case MarketingPercentage:
		if err := percent("marketing_cost", in.MarketingCost); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, &ValidationError{Field: "marketing_mode", Message: "must be fixed or percentage"})
	}

	return errors.Join(errs...)
}

// Validate checks that a fee schedule is usable.
func (p Policy) Validate() error {
	var errs []error
	if err := nonNegative("payment_flat_fee", p.PaymentFlatFee); err != nil {
		errs = append(errs, err)
	}
	if err := nonNegative("payment_fee_rate", p.PaymentFeeRate); err != nil {
		errs = append(errs, err)
	} else if p.PaymentFeeRate >= 1 {
		errs = append(errs, &ValidationError{Field: "payment_fee_rate", Message: "must be below 1"})
	}
	if err := nonNegative("rounding_increment", p.RoundingIncrement); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Message: "must be a number"}
	}
	if v < 0 {
		return &ValidationError{Field: field, Message: "must be greater than or equal to 0"}
	}
	if v > MaxAmount {
		return &ValidationError{Field: field, Message: "must be at most 1000000000"}
	}
	return nil
}

func percent(field string, v float64) error {
	if err := nonNegative(field, v); err != nil {
		return err
	}
	if v > 100 {
		return &ValidationError{Field: field, Message: "must be between 0 and 100"}
	}
	return nil
}
