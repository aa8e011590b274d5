package rate

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/adapters"
	"github.com/165cm/fxarchive/internal/domain"
)

// Resolver maps arbitrary calendar dates to a usable USD/JPY rate. Every
// branch terminates in a number: exact hit, walk back over a weekend,
// nearest prior day in the owning quarter, or the configured default.
// Downstream estimates must never block on a single missing trading day.
type Resolver struct {
	store       adapters.QuarterlyStore
	cache       adapters.RateCache
	defaultRate float64
	now         func() time.Time
}

func NewResolver(store adapters.QuarterlyStore, cache adapters.RateCache, defaultRate float64) *Resolver {
	return &Resolver{store: store, cache: cache, defaultRate: defaultRate, now: time.Now}
}

// Resolve never fails; malformed input and missing coverage degrade to
// the default rate.
func (r *Resolver) Resolve(ctx context.Context, raw string) float64 {
	d, err := domain.ParseDate(raw)
	if err != nil {
		logrus.WithField("date", raw).Warn("Unparseable date, falling back to default rate")
		return r.defaultRate
	}

	if rate, ok := r.cache.Get(d); ok {
		return rate
	}

	ds, ok := r.loadQuarter(ctx, domain.QuarterOf(d))
	if !ok {
		return r.defaultRate
	}

	if entry, ok := ds.Rates[d]; ok {
		r.cache.Set(d, entry.RateJPY)
		return entry.RateJPY
	}

	if d.IsWeekend() {
		for p := d.PrevBusinessDay(); p >= ds.Start; p = p.PrevBusinessDay() {
			if entry, ok := ds.Rates[p]; ok {
				r.cache.Set(d, entry.RateJPY)
				return entry.RateJPY
			}
		}
	}

	// Unlisted holiday inside the quarter's coverage: take the newest
	// stored day older than the target.
	prior := make([]domain.Date, 0, len(ds.Rates))
	for k := range ds.Rates {
		if k < d {
			prior = append(prior, k)
		}
	}
	if len(prior) > 0 {
		sort.Slice(prior, func(i, j int) bool { return prior[i] > prior[j] })
		entry := ds.Rates[prior[0]]
		r.cache.Set(d, entry.RateJPY)
		return entry.RateJPY
	}

	return r.defaultRate
}

func (r *Resolver) loadQuarter(ctx context.Context, q domain.QuarterID) (domain.QuarterDataset, bool) {
	var (
		ds  domain.QuarterDataset
		ok  bool
		err error
	)
	if q == domain.QuarterOf(domain.DateOf(r.now())) {
		ds, ok, err = r.store.ReadCurrent(ctx, q)
	} else {
		ds, ok, err = r.store.ReadHistorical(ctx, q)
	}
	if err != nil {
		logrus.WithError(err).WithField("quarter", q.String()).Warn("Failed to load quarter dataset")
		return domain.QuarterDataset{}, false
	}
	return ds, ok
}
