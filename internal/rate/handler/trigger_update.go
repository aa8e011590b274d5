package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/domain"
)

type TriggerUpdateRequest struct {
	FromDate string `json:"fromDate"`
}

type TriggerUpdateResponse struct {
	RunID       string   `json:"run_id"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	DaysWritten int      `json:"days_written"`
	Finalized   []string `json:"finalized,omitempty"`
}

// TriggerUpdate runs one update synchronously. An optional fromDate in the
// body switches to the re-fetch path. Authorization is the caller's
// concern; a reverse proxy or scheduler invokes this endpoint.
func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TriggerUpdateRequest
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var from *domain.Date
	if req.FromDate != "" {
		d, err := domain.ParseDate(req.FromDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid fromDate, expected YYYY-MM-DD")
			return
		}
		from = &d
	}

	runID := uuid.NewString()
	res, err := h.updater.Run(r.Context(), from)
	if err != nil {
		h.notifier.NotifyError(r.Context(), err)
		logrus.WithError(err).WithField("run_id", runID).Error("Rate update run failed")

		var validationErr *domain.ValidationError
		var upstreamErr *domain.UpstreamError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.As(err, &upstreamErr):
			writeError(w, http.StatusBadGateway, "upstream rate fetch failed")
		default:
			writeError(w, http.StatusInternalServerError, "rate update failed")
		}
		return
	}

	finalized := make([]string, 0, len(res.Finalized))
	for _, q := range res.Finalized {
		finalized = append(finalized, q.String())
	}

	writeJSON(w, http.StatusAccepted, TriggerUpdateResponse{
		RunID:       runID,
		Start:       res.Start.String(),
		End:         res.End.String(),
		DaysWritten: res.DaysWritten,
		Finalized:   finalized,
	})
}
