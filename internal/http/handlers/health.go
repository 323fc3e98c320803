package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	history := "disabled"
	if a.History != nil {
		history = "enabled"
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "history": history})
}
