package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Simplici0/pricebook/internal/catalog"
	"github.com/Simplici0/pricebook/internal/pricing"
)

type pricingRequest struct {
	Inputs          pricing.CostInputs `json:"inputs"`
	PaymentMethodID int64              `json:"payment_method_id"`
}

type pricingResponse struct {
	Result          pricing.Result    `json:"result"`
	Discounts       pricing.Discounts `json:"discounts"`
	Policy          pricing.Policy    `json:"policy"`
	PaymentMethodID int64             `json:"payment_method_id,omitempty"`
	PaymentMethod   string            `json:"payment_method"`
}

type storedPricingResponse struct {
	pricingResponse
	ProductID int64              `json:"product_id"`
	Inputs    pricing.CostInputs `json:"inputs"`
	UpdatedAt string             `json:"updated_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newPricingResponse(in pricing.CostInputs, policy pricing.Policy, methodID int64, method string, result pricing.Result) pricingResponse {
	return pricingResponse{
		Result:          result,
		Discounts:       pricing.Analyze(result, in.ProfitMarginPercent),
		Policy:          policy,
		PaymentMethodID: methodID,
		PaymentMethod:   method,
	}
}

func decodePricingRequest(r *http.Request) (calculatorForm, error) {
	var req pricingRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return calculatorForm{}, err
	}
	if req.Inputs.MarketingMode == "" {
		req.Inputs.MarketingMode = pricing.MarketingFixed
	}
	if err := req.Inputs.Validate(); err != nil {
		return calculatorForm{}, err
	}
	if req.PaymentMethodID < 0 {
		return calculatorForm{}, errors.New("payment_method_id is invalid")
	}
	return calculatorForm{Inputs: req.Inputs, PaymentMethodID: req.PaymentMethodID}, nil
}

// handleAPICompute prices inputs without storing anything.
func (s *server) handleAPICompute(w http.ResponseWriter, r *http.Request) {
	form, err := decodePricingRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	policy, method, err := s.store.PolicyFor(r.Context(), form.PaymentMethodID, s.fallback)
	if err != nil {
		if errors.Is(err, catalog.ErrPaymentMethodInactive) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: paymentMethodError(err)})
			return
		}
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: paymentMethodError(err)})
			return
		}
		slog.Error("resolve payment policy", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to resolve payment policy"})
		return
	}

	result := pricing.Compute(form.Inputs, policy)
	s.metrics.ObserveComputation("api", result.FinalPrice)

	writeJSON(w, http.StatusOK, newPricingResponse(form.Inputs, policy, method.ID, method.Name, result))
}

func (s *server) handleAPIGetPricing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	pp, err := s.store.GetPricing(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "pricing not found"})
			return
		}
		slog.Error("load stored pricing", "product_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load pricing"})
		return
	}

	writeJSON(w, http.StatusOK, storedPricingResponse{
		pricingResponse: newPricingResponse(pp.Inputs, pp.Policy, pp.PaymentMethodID, pp.PaymentMethod, pp.Result),
		ProductID:       pp.ProductID,
		Inputs:          pp.Inputs,
		UpdatedAt:       pp.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *server) handleAPISavePricing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	form, err := decodePricingRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	pp, err := s.priceProduct(r.Context(), id, form, "api")
	if err != nil {
		if errors.Is(err, catalog.ErrPaymentMethodInactive) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: paymentMethodError(err)})
			return
		}
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "product or payment method not found"})
			return
		}
		slog.Error("save product pricing", "product_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save pricing"})
		return
	}

	writeJSON(w, http.StatusOK, storedPricingResponse{
		pricingResponse: newPricingResponse(pp.Inputs, pp.Policy, pp.PaymentMethodID, pp.PaymentMethod, pp.Result),
		ProductID:       pp.ProductID,
		Inputs:          pp.Inputs,
	})
}
