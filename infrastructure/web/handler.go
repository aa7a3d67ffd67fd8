// Package web serves the demo pages: a user picker and the two-party
// messenger page. Boundary plumbing only, the relay does not depend on it.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"cipher-relay/crypto"
)

//go:embed templates/*.html static/*
var assets embed.FS

// DemoUsers mirrors the original's fixed Alice/Bob pair.
var DemoUsers = []string{"Alice", "Bob"}

type Handler struct {
	log    *slog.Logger
	engine *crypto.Engine
	tmpl   *template.Template
}

func NewHandler(log *slog.Logger, engine *crypto.Engine) *Handler {
	return &Handler{
		log:    log,
		engine: engine,
		tmpl:   template.Must(template.ParseFS(assets, "templates/*.html")),
	}
}

func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /messenger/{sender}", h.messenger)
	mux.Handle("GET /static/", http.FileServerFS(assets))
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", map[string]any{"Users": DemoUsers})
}

func (h *Handler) messenger(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	if !lo.Contains(DemoUsers, sender) {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}
	recipient := DemoUsers[0]
	if sender == recipient {
		recipient = DemoUsers[1]
	}

	h.render(w, "message.html", map[string]any{
		"Sender":            sender,
		"Recipient":         recipient,
		"KeyExchangeStatus": "success",
		"SessionKeySnippet": h.engine.KeySnippet(sender, recipient),
	})
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("template rendering failed", "template", name, "error", err)
	}
}
