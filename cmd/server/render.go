package main

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/Simplici0/pricebook/web"
)

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
}

var templateFuncs = template.FuncMap{
	"money": func(v float64) string {
		return humanize.FormatFloat("#,###.##", v)
	},
	// rate 0.0699 -> "6.99%"
	"percent": func(rate float64) string {
		return humanize.FormatFloat("#,###.##", rate*100) + "%"
	},
	// value already in percent, 21.45 -> "21.45%"
	"percentValue": func(v float64) string {
		return humanize.FormatFloat("#,###.##", v) + "%"
	},
	"feePercent": func(rate float64) float64 {
		return rate * 100
	},
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	s.renderTemplateStatus(w, http.StatusOK, page, data)
}

func (s *server) renderTemplateStatus(w http.ResponseWriter, status int, page string, data any) {
	templates, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(web.FS,
		"templates/layout.html",
		"templates/"+page,
	)
	if err != nil {
		slog.Error("parse template", "page", page, "error", err)
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		slog.Error("render template", "page", page, "error", err)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
