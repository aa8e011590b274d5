package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type GetRateResponse struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// GetRate resolves a date to a rate. Resolution is fail-soft, so the
// response is always 200 with a numeric rate.
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	rate := h.resolver.Resolve(r.Context(), date)

	writeJSON(w, http.StatusOK, GetRateResponse{Date: date, Rate: rate})
}
