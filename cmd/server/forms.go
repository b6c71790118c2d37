package main

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/pricebook/internal/catalog"
	"github.com/Simplici0/pricebook/internal/pricing"
)

type calculatorForm struct {
	Inputs          pricing.CostInputs
	PaymentMethodID int64
}

func parseCalculatorForm(r *http.Request) (calculatorForm, error) {
	form := calculatorForm{
		Inputs: pricing.CostInputs{
			MarketingMode:      pricing.MarketingMode(strings.TrimSpace(r.FormValue("marketing_mode"))),
			HasSecondaryFabric: r.FormValue("has_secondary_fabric") == "1",
			HasTurha:           r.FormValue("has_turha") == "1",
			HasSecondaryTurha:  r.FormValue("has_secondary_turha") == "1",
			HasEmbroidery:      r.FormValue("has_embroidery") == "1",
		},
	}
	if form.Inputs.MarketingMode == "" {
		form.Inputs.MarketingMode = pricing.MarketingFixed
	}

	in := &form.Inputs
	fields := []struct {
		name string
		dest *float64
	}{
		{"fabric_main_cost", &in.FabricMainCost},
		{"fabric_secondary_cost", &in.FabricSecondaryCost},
		{"turha_main_cost", &in.TurhaMainCost},
		{"turha_secondary_cost", &in.TurhaSecondaryCost},
		{"embroidery_cost", &in.EmbroideryCost},
		{"tailoring_cost", &in.TailoringCost},
		{"packaging_cost", &in.PackagingCost},
		{"delivery_cost", &in.DeliveryCost},
		{"extra_expenses", &in.ExtraExpenses},
		{"fixed_costs", &in.FixedCosts},
		{"marketing_cost", &in.MarketingCost},
		{"profit_margin_percent", &in.ProfitMarginPercent},
	}
	for _, f := range fields {
		value, err := parseOptionalNonNegativeFloat(r.FormValue(f.name), f.name)
		if err != nil {
			return form, err
		}
		*f.dest = value
	}

	if err := in.Validate(); err != nil {
		return form, err
	}

	if raw := strings.TrimSpace(r.FormValue("payment_method_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return form, fmt.Errorf("payment_method_id is invalid")
		}
		form.PaymentMethodID = id
	}

	return form, nil
}

func parseProductForm(r *http.Request) (catalog.Product, error) {
	p := catalog.Product{
		Name:     strings.TrimSpace(r.FormValue("name")),
		SKU:      strings.TrimSpace(r.FormValue("sku")),
		Category: strings.TrimSpace(r.FormValue("category")),
		Active:   r.FormValue("active") == "1",
	}
	if p.Name == "" {
		return p, fmt.Errorf("name is required")
	}

	var err error
	if p.SalePrice, err = parseOptionalNonNegativeFloat(r.FormValue("sale_price"), "sale_price"); err != nil {
		return p, err
	}
	return p, nil
}

func parseSettingsForm(r *http.Request) (catalog.Settings, error) {
	st := catalog.Settings{
		Currency: strings.ToUpper(strings.TrimSpace(r.FormValue("currency"))),
	}

	var err error
	if st.DefaultFixedCosts, err = parseNonNegativeFloat(r.FormValue("default_fixed_costs"), "default_fixed_costs"); err != nil {
		return st, err
	}
	if st.DefaultMarginPercent, err = parsePercent(r.FormValue("default_margin_percent"), "default_margin_percent"); err != nil {
		return st, err
	}
	if st.RoundingIncrement, err = parseNonNegativeFloat(r.FormValue("rounding_increment"), "rounding_increment"); err != nil {
		return st, err
	}
	if raw := strings.TrimSpace(r.FormValue("default_payment_method_id")); raw != "" {
		st.DefaultPaymentMethodID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || st.DefaultPaymentMethodID < 0 {
			return st, fmt.Errorf("default_payment_method_id is invalid")
		}
	}
	if len(st.Currency) != 3 {
		return st, fmt.Errorf("currency must be a 3-letter code")
	}

	return st, nil
}

// parsePaymentMethodForm reads the fee rate as a percentage (6.99) and stores it as a rate (0.0699).
func parsePaymentMethodForm(r *http.Request) (catalog.PaymentMethod, error) {
	m := catalog.PaymentMethod{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Active: r.FormValue("active") == "1",
	}
	if m.Name == "" {
		return m, fmt.Errorf("name is required")
	}

	var err error
	if m.FlatFee, err = parseNonNegativeFloat(r.FormValue("flat_fee"), "flat_fee"); err != nil {
		return m, err
	}
	feePercent, err := parsePercent(r.FormValue("fee_percent"), "fee_percent")
	if err != nil {
		return m, err
	}
	if feePercent >= 100 {
		return m, fmt.Errorf("fee_percent must be below 100")
	}
	m.FeeRate = feePercent / 100

	return m, nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be greater than or equal to 0", field)
	}
	return value, nil
}

func parseOptionalNonNegativeFloat(raw, field string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return parseNonNegativeFloat(raw, field)
}

func parsePercent(raw, field string) (float64, error) {
	value, err := parseNonNegativeFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value > 100 {
		return 0, fmt.Errorf("%s must be between 0 and 100", field)
	}
	return value, nil
}
