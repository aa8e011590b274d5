package rate

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/adapters"
	"github.com/165cm/fxarchive/internal/domain"
)

// Integrity checks sealed datasets against the checksum registry. It is
// detection only; a mismatch is reported, never repaired.
type Integrity struct {
	store adapters.QuarterlyStore
}

func NewIntegrity(store adapters.QuarterlyStore) *Integrity {
	return &Integrity{store: store}
}

// Verify recomputes the hash of the stored historical dataset and compares
// it with the registry entry. A missing dataset, missing registry entry or
// any read failure yields false.
func (i *Integrity) Verify(ctx context.Context, q domain.QuarterID) bool {
	ds, ok, err := i.store.ReadHistorical(ctx, q)
	if err != nil {
		logrus.WithError(err).WithField("quarter", q.String()).Warn("Failed to read sealed dataset")
		return false
	}
	if !ok {
		return false
	}

	recorded, ok, err := i.store.RegisteredHash(ctx, q)
	if err != nil {
		logrus.WithError(err).WithField("quarter", q.String()).Warn("Failed to read checksum registry")
		return false
	}
	if !ok {
		return false
	}

	computed, err := domain.DatasetHash(ds)
	if err != nil {
		return false
	}
	if computed != recorded {
		logrus.WithFields(logrus.Fields{"quarter": q.String(), "recorded": recorded, "computed": computed}).
			Warn("Sealed dataset hash mismatch")
		return false
	}
	return true
}
