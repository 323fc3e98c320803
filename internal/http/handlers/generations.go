package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"neogen/internal/domain"
	"neogen/internal/middleware"
)

const defaultHistoryLimit = 20

type generationResponse struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id,omitempty"`
	Prompt     string    `json:"prompt"`
	Status     string    `json:"status,omitempty"`
	Image      string    `json:"image,omitempty"`
	Code       string    `json:"code,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

func toGenerationResponse(g domain.Generation) generationResponse {
	return generationResponse{
		ID:         g.ID,
		JobID:      g.JobID,
		Prompt:     g.Prompt,
		Status:     string(g.Status),
		Image:      g.ImageURL,
		Code:       g.ErrorCode,
		Error:      g.Error,
		DurationMS: g.Duration.Milliseconds(),
		CreatedAt:  g.CreatedAt,
	}
}

// ListGenerations handles GET /api/generations?limit=N.
func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	if a.History == nil {
		a.error(w, statusForCode("history_disabled"), "history_disabled", localize(locale, "history_disabled", "history disabled"))
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "invalid_input", localize(locale, "invalid_payload", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := a.History.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list generations")
		a.error(w, http.StatusInternalServerError, "internal", localize(locale, "internal", "failed to list generations"))
		return
	}
	out := make([]generationResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGenerationResponse(g))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

// GetGeneration handles GET /api/generations/{id}.
func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	if a.History == nil {
		a.error(w, statusForCode("history_disabled"), "history_disabled", localize(locale, "history_disabled", "history disabled"))
		return
	}
	gen, err := a.History.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", localize(locale, "not_found", "generation not found"))
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("get generation")
		a.error(w, http.StatusInternalServerError, "internal", localize(locale, "internal", "failed to load generation"))
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(*gen))
}
