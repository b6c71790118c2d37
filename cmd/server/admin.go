package main

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Simplici0/pricebook/internal/catalog"
)

type settingsViewData struct {
	baseViewData
	Settings catalog.Settings
	Methods  []catalog.PaymentMethod
}

type paymentMethodsViewData struct {
	baseViewData
	Methods []catalog.PaymentMethod
}

func (s *server) handleAdminSettingsForm(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetSettings(r.Context())
	if err != nil {
		slog.Error("load settings", "error", err)
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	methods, err := s.store.ListPaymentMethods(r.Context(), true)
	if err != nil {
		slog.Error("list payment methods", "error", err)
		http.Error(w, "failed to load payment methods", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_settings.html", settingsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Settings: st,
		Methods:  methods,
	})
}

func (s *server) handleAdminSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	st, err := parseSettingsForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/settings?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if st.DefaultPaymentMethodID > 0 {
		method, err := s.store.GetPaymentMethod(r.Context(), st.DefaultPaymentMethodID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Redirect(w, r, "/admin/settings?error="+url.QueryEscape("payment method not found"), http.StatusSeeOther)
				return
			}
			slog.Error("load payment method", "payment_method_id", st.DefaultPaymentMethodID, "error", err)
			http.Error(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
		if !method.Active {
			http.Redirect(w, r, "/admin/settings?error="+url.QueryEscape("payment method is inactive"), http.StatusSeeOther)
			return
		}
	}

	if err := s.store.UpdateSettings(r.Context(), st); err != nil {
		slog.Error("update settings", "error", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	slog.Info("pricing settings updated",
		"default_fixed_costs", st.DefaultFixedCosts,
		"default_margin_percent", st.DefaultMarginPercent,
		"rounding_increment", st.RoundingIncrement,
		"currency", st.Currency,
	)

	http.Redirect(w, r, "/admin/settings?success=Settings+saved", http.StatusSeeOther)
}

func (s *server) handleAdminPaymentMethodsForm(w http.ResponseWriter, r *http.Request) {
	methods, err := s.store.ListPaymentMethods(r.Context(), false)
	if err != nil {
		slog.Error("list payment methods", "error", err)
		http.Error(w, "failed to load payment methods", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_payment_methods.html", paymentMethodsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Methods: methods,
	})
}

func (s *server) handleAdminPaymentMethodsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	method, err := parsePaymentMethodForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/payment-methods?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	id, err := s.store.CreatePaymentMethod(r.Context(), method)
	if err != nil {
		slog.Error("create payment method", "error", err)
		http.Redirect(w, r, "/admin/payment-methods?error="+url.QueryEscape("could not create payment method, names must be unique"), http.StatusSeeOther)
		return
	}
	slog.Info("payment method created", "payment_method_id", id, "name", method.Name)

	http.Redirect(w, r, "/admin/payment-methods?success=Payment+method+created", http.StatusSeeOther)
}

func (s *server) handleAdminPaymentMethodsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid payment method id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	method, err := parsePaymentMethodForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/payment-methods?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	method.ID = id

	if err := s.store.UpdatePaymentMethod(r.Context(), method); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("update payment method", "payment_method_id", id, "error", err)
		http.Error(w, "failed to update payment method", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/payment-methods?success=Payment+method+updated", http.StatusSeeOther)
}
