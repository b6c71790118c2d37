package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Simplici0/pricebook/internal/catalog"
	"github.com/Simplici0/pricebook/internal/pricing"
)

type calculatorViewData struct {
	baseViewData
	Product          catalog.Product
	Inputs           pricing.CostInputs
	Methods          []catalog.PaymentMethod
	SelectedMethodID int64
	Result           *pricing.Result
	Discounts        *pricing.Discounts
	RealizedMargin   *float64
	Currency         string
}

func (s *server) handleCalculatorForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	product, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		s.productLoadError(w, r, id, err)
		return
	}

	data, err := s.calculatorData(r.Context(), product)
	if err != nil {
		slog.Error("load calculator data", "product_id", id, "error", err)
		http.Error(w, "failed to load pricing", http.StatusInternalServerError)
		return
	}
	data.ErrorMessage = r.URL.Query().Get("error")
	data.SuccessMessage = r.URL.Query().Get("success")

	stored, err := s.store.GetPricing(r.Context(), id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
	case err != nil:
		slog.Error("load stored pricing", "product_id", id, "error", err)
		http.Error(w, "failed to load pricing", http.StatusInternalServerError)
		return
	default:
		data.Inputs = stored.Inputs
		if stored.PaymentMethodID > 0 {
			data.SelectedMethodID = stored.PaymentMethodID
		}
		data.setResult(stored.Result)
	}

	s.renderTemplate(w, "calculator.html", data)
}

func (s *server) handleCalculatorSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	product, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		s.productLoadError(w, r, id, err)
		return
	}

	data, err := s.calculatorData(r.Context(), product)
	if err != nil {
		slog.Error("load calculator data", "product_id", id, "error", err)
		http.Error(w, "failed to load pricing", http.StatusInternalServerError)
		return
	}

	form, err := parseCalculatorForm(r)
	data.Inputs = form.Inputs
	if form.PaymentMethodID > 0 {
		data.SelectedMethodID = form.PaymentMethodID
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		s.renderTemplateStatus(w, http.StatusBadRequest, "calculator.html", data)
		return
	}

	saved, err := s.priceProduct(r.Context(), id, form, "form")
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrPaymentMethodInactive) {
			data.ErrorMessage = paymentMethodError(err)
			s.renderTemplateStatus(w, http.StatusBadRequest, "calculator.html", data)
			return
		}
		slog.Error("save product pricing", "product_id", id, "error", err)
		http.Error(w, "failed to save pricing", http.StatusInternalServerError)
		return
	}

	data.SuccessMessage = "Pricing saved"
	data.setResult(saved.Result)
	s.renderTemplate(w, "calculator.html", data)
}

// priceProduct computes a calculation with the resolved payment policy and stores it on the product.
func (s *server) priceProduct(ctx context.Context, productID int64, form calculatorForm, source string) (catalog.ProductPricing, error) {
	policy, method, err := s.store.PolicyFor(ctx, form.PaymentMethodID, s.fallback)
	if err != nil {
		return catalog.ProductPricing{}, fmt.Errorf("resolve payment policy: %w", err)
	}

	result := pricing.Compute(form.Inputs, policy)
	s.metrics.ObserveComputation(source, result.FinalPrice)

	pp := catalog.ProductPricing{
		ProductID:       productID,
		PaymentMethodID: method.ID,
		PaymentMethod:   method.Name,
		Inputs:          form.Inputs,
		Policy:          policy,
		Result:          result,
	}
	if err := s.store.SavePricing(ctx, pp); err != nil {
		return catalog.ProductPricing{}, err
	}
	s.metrics.ObserveSave()

	slog.Info("product priced",
		"product_id", productID,
		"payment_method", method.Name,
		"final_price", result.FinalPrice,
		"suggested_price", result.SuggestedPrice,
	)
	return pp, nil
}

func (s *server) calculatorData(ctx context.Context, product catalog.Product) (calculatorViewData, error) {
	data := calculatorViewData{Product: product}

	methods, err := s.store.ListPaymentMethods(ctx, true)
	if err != nil {
		return data, err
	}
	data.Methods = methods

	st, err := s.store.GetSettings(ctx)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		data.Inputs = catalog.Settings{
			DefaultFixedCosts: pricing.DefaultFixedCosts,
		}.DefaultInputs()
	case err != nil:
		return data, err
	default:
		data.Inputs = st.DefaultInputs()
		data.SelectedMethodID = st.DefaultPaymentMethodID
		data.Currency = st.Currency
	}
	return data, nil
}

func (d *calculatorViewData) setResult(result pricing.Result) {
	d.Result = &result
	discounts := pricing.Analyze(result, d.Inputs.ProfitMarginPercent)
	d.Discounts = &discounts
	if d.Product.SalePrice > 0 {
		margin := pricing.RealizedMargin(result, d.Product.SalePrice)
		d.RealizedMargin = &margin
	}
}

func paymentMethodError(err error) string {
	if errors.Is(err, catalog.ErrPaymentMethodInactive) {
		return "payment method is inactive"
	}
	return "payment method not found"
}

func (s *server) productLoadError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	slog.Error("load product", "product_id", id, "error", err)
	http.Error(w, "failed to load product", http.StatusInternalServerError)
}
