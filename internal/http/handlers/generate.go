package handlers

import (
	"encoding/json"
	"net/http"

	"neogen/internal/middleware"
)

const maxGenerateBody = 64 << 10

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Image string `json:"image"`
}

// Generate handles POST /api/generate: {prompt} in, {image} or {error, code} out.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_payload", localize(locale, "invalid_payload", "invalid payload"))
		return
	}

	out := a.Generator.Generate(r.Context(), req.Prompt)
	if out.JobID != "" {
		w.Header().Set("X-Job-ID", out.JobID)
	}
	if out.Err != nil || out.Image == "" {
		code := out.Code
		if code == "" {
			code = "internal"
		}
		message := out.Error
		if message == "" {
			message = "internal error"
		}
		a.error(w, statusForCode(code), code, localize(locale, code, message))
		return
	}
	a.json(w, http.StatusOK, generateResponse{Image: out.Image})
}
