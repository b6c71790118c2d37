package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestAnalyze_ReferenceScenario(t *testing.T) {
	in := exampleInputs()
	result := Compute(in, DefaultPolicy())

	d := Analyze(result, in.ProfitMarginPercent)

	nearlyEqual(t, "maxAcceptableCAC", d.MaxAcceptableCAC, 58.5)
	if math.Abs(d.MaxDiscountPercent-21.4505995) > 1e-6 {
		t.Fatalf("maxDiscountPercent = %v, want ~21.4506", d.MaxDiscountPercent)
	}
	if math.Abs(d.IdealDiscountPercent-6.4505995) > 1e-6 {
		t.Fatalf("idealDiscountPercent = %v, want ~6.4506", d.IdealDiscountPercent)
	}
}

func TestAnalyze_IdealDiscountIsClamped(t *testing.T) {
	lowMargin := Result{FinalPrice: 100, DirectCosts: 95}
	if got := Analyze(lowMargin, 30).IdealDiscountPercent; got != 0 {
		t.Fatalf("idealDiscountPercent = %v, want 0", got)
	}

	highMargin := Result{FinalPrice: 100, DirectCosts: 5}
	if got := Analyze(highMargin, 10).IdealDiscountPercent; got != maxIdealDiscount {
		t.Fatalf("idealDiscountPercent = %v, want %v", got, maxIdealDiscount)
	}
}

func TestAnalyze_ZeroFinalPrice(t *testing.T) {
	d := Analyze(Result{}, 30)
	if d != (Discounts{}) {
		t.Fatalf("Analyze(zero) = %+v, want zero value", d)
	}
}

func TestRealizedMargin(t *testing.T) {
	result := Compute(exampleInputs(), DefaultPolicy())

	if got := RealizedMargin(result, 300); math.Abs(got-40.0431753) > 1e-6 {
		t.Fatalf("RealizedMargin(300) = %v, want ~40.0432", got)
	}
	if got := RealizedMargin(result, 100); got >= 0 {
		t.Fatalf("RealizedMargin(100) = %v, want negative", got)
	}
	if got := RealizedMargin(Result{}, 100); got != 0 {
		t.Fatalf("RealizedMargin on zero costs = %v, want 0", got)
	}
}

func TestCostInputsValidate(t *testing.T) {
	if err := exampleInputs().Validate(); err != nil {
		t.Fatalf("valid inputs rejected: %v", err)
	}

	in := exampleInputs()
	in.TailoringCost = -1
	in.ProfitMarginPercent = 120
	in.MarketingMode = "weekly"

	err := in.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	fields := map[string]bool{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *ValidationError
		if !errors.As(e, &ve) {
			t.Fatalf("unexpected error type %T", e)
		}
		fields[ve.Field] = true
	}
	for _, f := range []string{"tailoring_cost", "profit_margin_percent", "marketing_mode"} {
		if !fields[f] {
			t.Fatalf("expected error for %s, got %v", f, err)
		}
	}
}

func TestCostInputsValidate_RejectsAmountsAboveMax(t *testing.T) {
	in := exampleInputs()
	in.FixedCosts = MaxAmount
	if err := in.Validate(); err != nil {
		t.Fatalf("MaxAmount fixed costs rejected: %v", err)
	}

	in.FabricMainCost = 1e308
	err := in.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "fabric_main_cost" {
		t.Fatalf("expected fabric_main_cost error, got %v", err)
	}

	if err := (Policy{PaymentFlatFee: 1e12}).Validate(); err == nil {
		t.Fatalf("expected huge flat fee to be rejected")
	}
}

func TestCostInputsValidate_MarketingPercentageRange(t *testing.T) {
	in := exampleInputs()
	in.MarketingMode = MarketingPercentage
	in.MarketingCost = 150

	if err := in.Validate(); err == nil {
		t.Fatalf("expected marketing percentage above 100 to be rejected")
	}

	in.MarketingMode = MarketingFixed
	if err := in.Validate(); err != nil {
		t.Fatalf("fixed marketing of 150 rejected: %v", err)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy rejected: %v", err)
	}
	if err := (Policy{PaymentFeeRate: 1}).Validate(); err == nil {
		t.Fatalf("expected fee rate of 1 to be rejected")
	}
	if err := (Policy{PaymentFlatFee: math.NaN()}).Validate(); err == nil {
		t.Fatalf("expected NaN flat fee to be rejected")
	}
}
