package main

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Simplici0/pricebook/internal/catalog"
)

type productsViewData struct {
	baseViewData
	Query    string
	Currency string
	Products []catalog.PricedProduct
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	products, err := s.store.ListProducts(r.Context(), query)
	if err != nil {
		slog.Error("list products", "error", err)
		http.Error(w, "failed to load products", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "products.html", productsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Query:    query,
		Currency: s.currency(r),
		Products: products,
	})
}

func (s *server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	product, err := parseProductForm(r)
	if err != nil {
		http.Redirect(w, r, "/products?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	id, err := s.store.CreateProduct(r.Context(), product)
	if err != nil {
		slog.Error("create product", "error", err)
		http.Error(w, "failed to create product", http.StatusInternalServerError)
		return
	}
	slog.Info("product created", "product_id", id)

	http.Redirect(w, r, "/products?success=Product+created", http.StatusSeeOther)
}

func (s *server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	product, err := parseProductForm(r)
	if err != nil {
		http.Redirect(w, r, "/products?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	product.ID = id

	if err := s.store.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("update product", "product_id", id, "error", err)
		http.Error(w, "failed to update product", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/products?success=Product+updated", http.StatusSeeOther)
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("delete product", "product_id", id, "error", err)
		http.Error(w, "failed to delete product", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/products?success=Product+deleted", http.StatusSeeOther)
}

// currency returns the configured display currency, or an empty string when settings are unavailable.
func (s *server) currency(r *http.Request) string {
	st, err := s.store.GetSettings(r.Context())
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			slog.Warn("load settings for currency", "error", err)
		}
		return ""
	}
	return st.Currency
}
