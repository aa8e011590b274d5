package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/165cm/fxarchive/internal/domain"
)

type VerifyQuarterResponse struct {
	Quarter string `json:"quarter"`
	Valid   bool   `json:"valid"`
}

// VerifyQuarter recomputes a sealed quarter's hash and compares it with
// the checksum registry. The route patterns guarantee numeric params.
func (h *Handler) VerifyQuarter(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	quarter, err := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err != nil || quarter < 1 || quarter > 4 {
		writeError(w, http.StatusBadRequest, "invalid quarter")
		return
	}

	q := domain.QuarterID{Year: year, Quarter: quarter}
	writeJSON(w, http.StatusOK, VerifyQuarterResponse{
		Quarter: q.String(),
		Valid:   h.verifier.Verify(r.Context(), q),
	})
}
