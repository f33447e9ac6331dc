package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/llm"
)

func (d *Dependencies) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
		System   string `json:"system"`
		Message  string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := d.Router.Chat(r.Context(), req.Provider, req.System, req.Message)
	if err != nil {
		var cfgErr *llm.ConfigError
		if errors.As(err, &cfgErr) {
			respondError(w, http.StatusBadRequest, cfgErr.Error())
			return
		}
		d.Logger.Error("chat failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
