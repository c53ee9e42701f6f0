// Package handlers implements the session API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"canvasd/internal/session"
)

// App carries the dependencies every handler needs.
type App struct {
	Sessions *session.Registry
	Log      zerolog.Logger
}

// NewApp constructs the handler container.
func NewApp(sessions *session.Registry, log zerolog.Logger) *App {
	return &App{Sessions: sessions, Log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
