package adapters

import (
	"context"

	"github.com/165cm/fxarchive/internal/domain"
)

// RateSource abstracts the upstream rate provider. Implementations do no
// retrying, caching or pacing of their own; that belongs to the updater.
type RateSource interface {
	FetchRate(ctx context.Context, date domain.Date) (float64, error)
	FetchRateRange(ctx context.Context, start, end domain.Date) (map[domain.Date]float64, error)
	SourceID() string
}

// QuarterlyStore persists rate datasets partitioned by calendar quarter.
// The quarter a call addresses is always passed explicitly; the store
// never consults the wall clock. Read misses report absence via the bool,
// not an error.
type QuarterlyStore interface {
	ReadCurrent(ctx context.Context, q domain.QuarterID) (domain.QuarterDataset, bool, error)
	WriteCurrent(ctx context.Context, q domain.QuarterID, ds domain.QuarterDataset) error
	ReadHistorical(ctx context.Context, q domain.QuarterID) (domain.QuarterDataset, bool, error)
	Finalize(ctx context.Context, q domain.QuarterID) error
	DeleteAfter(ctx context.Context, q domain.QuarterID, cutoff domain.Date) error
	LatestDate(ctx context.Context, q domain.QuarterID) (domain.Date, bool, error)
	RegisteredHash(ctx context.Context, q domain.QuarterID) (string, bool, error)
}

// RateCache is a read-through cache over resolved rates.
type RateCache interface {
	Get(date domain.Date) (float64, bool)
	Set(date domain.Date, rate float64)
	Clear()
}

// RetryPolicy wraps a fallible operation. The default policy runs the
// operation exactly once, preserving the abort-on-first-failure contract.
type RetryPolicy interface {
	Do(ctx context.Context, op func(ctx context.Context) error) error
}

// Notifier reports a fatal update failure, fire-and-forget.
type Notifier interface {
	NotifyError(ctx context.Context, err error)
}
