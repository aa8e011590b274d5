package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LogNotifier emits a structured error record for a failed update run.
// It stands in for an alerting transport; callers treat it as
// fire-and-forget.
type LogNotifier struct {
	service string
}

func NewLogNotifier(service string) *LogNotifier {
	return &LogNotifier{service: service}
}

func (n *LogNotifier) NotifyError(ctx context.Context, err error) {
	logrus.WithFields(logrus.Fields{
		"severity":  "ERROR",
		"service":   n.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}).WithError(err).Error("Exchange rate update failed")
}
