package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"neogen/internal/domain"
	"neogen/internal/generate"
	"neogen/internal/infra"
)

// Generator is the caller-facing generate boundary.
type Generator interface {
	Generate(ctx context.Context, prompt string) generate.Outcome
}

type App struct {
	Generator Generator
	// History is nil when persistence is disabled.
	History domain.GenerationRepository
	Logger  *infra.Logger
}

func NewApp(gen Generator, history domain.GenerationRepository, logger *infra.Logger) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &App{Generator: gen, History: history, Logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: message, Code: code})
}
