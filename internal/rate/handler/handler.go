package handler

import (
	"encoding/json"
	"net/http"

	"github.com/165cm/fxarchive/internal/adapters"
	"github.com/165cm/fxarchive/internal/rate"
)

type Handler struct {
	updater  *rate.Updater
	resolver *rate.Resolver
	verifier *rate.Integrity
	notifier adapters.Notifier
}

func NewHandler(updater *rate.Updater, resolver *rate.Resolver, verifier *rate.Integrity, notifier adapters.Notifier) *Handler {
	return &Handler{updater: updater, resolver: resolver, verifier: verifier, notifier: notifier}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{Error: errorMsg})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
