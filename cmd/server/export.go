package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/Simplici0/pricebook/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *server) handleExportPricing(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context(), "")
	if err != nil {
		slog.Error("list products for export", "error", err)
		http.Error(w, "failed to export pricing", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.PricingWorkbook(&buf, products); err != nil {
		slog.Error("build pricing workbook", "error", err)
		http.Error(w, "failed to export pricing", http.StatusInternalServerError)
		return
	}

	filename := "pricing-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = buf.WriteTo(w)
}
