package rate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/adapters"
	"github.com/165cm/fxarchive/internal/domain"
)

// Updater coordinates one end-to-end rate update: determine the date gap,
// pull missing days from the provider with pacing between requests, write
// them day by day, and seal a quarter when its last day is reached.
// Exactly one Updater may run against a store at a time; the per-day write
// is a read-modify-write of the whole current dataset.
type Updater struct {
	store         adapters.QuarterlyStore
	source        adapters.RateSource
	retry         adapters.RetryPolicy
	cache         adapters.RateCache
	pace          time.Duration
	bootstrapDays int
	now           func() time.Time
}

func NewUpdater(
	store adapters.QuarterlyStore,
	source adapters.RateSource,
	retry adapters.RetryPolicy,
	cache adapters.RateCache,
	pace time.Duration,
	bootstrapDays int,
) *Updater {
	return &Updater{
		store:         store,
		source:        source,
		retry:         retry,
		cache:         cache,
		pace:          pace,
		bootstrapDays: bootstrapDays,
		now:           time.Now,
	}
}

// Result summarizes a completed (or aborted) run.
type Result struct {
	Start       domain.Date
	End         domain.Date
	DaysWritten int
	Finalized   []domain.QuarterID
}

// Run executes one update. With a non-nil from, entries from that date on
// are dropped first and the same range is re-fetched; otherwise the run
// resumes after the latest stored date, or bootstraps over a trailing
// window when the current dataset is empty. The first failed fetch aborts
// the run: a silent gap in the series is worse than an incomplete run,
// and re-invoking is safe because writes overwrite by date.
func (u *Updater) Run(ctx context.Context, from *domain.Date) (Result, error) {
	today := domain.DateOf(u.now())
	runQ := domain.QuarterOf(today)

	var start domain.Date
	if from != nil {
		if !runQ.Contains(*from) {
			return Result{}, &domain.ValidationError{
				Reason: fmt.Sprintf("fromDate %s outside the active quarter %s", *from, runQ),
			}
		}
		// The from date itself is subject to refresh, so the delete
		// cutoff sits one day earlier.
		if err := u.store.DeleteAfter(ctx, runQ, from.Prev()); err != nil {
			return Result{}, err
		}
		start = *from
	} else {
		latest, ok, err := u.store.LatestDate(ctx, runQ)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return u.bootstrap(ctx, runQ, today)
		}
		start = latest.Next()
	}

	if start > today {
		logrus.Info("Rates already up to date")
		return Result{Start: start, End: today}, nil
	}

	logrus.WithFields(logrus.Fields{"start": start, "end": today}).Info("Starting incremental rate update")

	res := Result{Start: start, End: today}
	// In practice the window stays inside runQ; splitting it per quarter
	// keeps a boundary-straddling run visible instead of implicit.
	for _, seg := range quarterSegments(start, today) {
		n, err := u.fillSegment(ctx, seg)
		res.DaysWritten += n
		if err != nil {
			return res, err
		}
		if seg.to == seg.quarter.End() {
			if err := u.store.Finalize(ctx, seg.quarter); err != nil {
				return res, err
			}
			res.Finalized = append(res.Finalized, seg.quarter)
		}
	}

	u.cache.Clear()
	logrus.WithField("days", res.DaysWritten).Info("Rate update complete")
	return res, nil
}

// bootstrap fills an empty current dataset from a single bulk fetch over
// the trailing window, clamped to the quarter start so no entry lands
// outside the dataset's bounds.
func (u *Updater) bootstrap(ctx context.Context, q domain.QuarterID, today domain.Date) (Result, error) {
	start := today.AddDays(-u.bootstrapDays)
	if start < q.Start() {
		start = q.Start()
	}

	logrus.WithFields(logrus.Fields{"start": start, "end": today}).Info("No stored rates, bootstrapping")

	var fetched map[domain.Date]float64
	err := u.retry.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		fetched, fetchErr = u.source.FetchRateRange(ctx, start, today)
		return fetchErr
	})
	if err != nil {
		return Result{}, err
	}

	days := make([]domain.Date, 0, len(fetched))
	for d := range fetched {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	res := Result{Start: start, End: today}
	for _, d := range days {
		if err := u.writeDay(ctx, q, d, fetched[d]); err != nil {
			return res, err
		}
		res.DaysWritten++
	}

	if today == q.End() {
		if err := u.store.Finalize(ctx, q); err != nil {
			return res, err
		}
		res.Finalized = append(res.Finalized, q)
	}

	u.cache.Clear()
	logrus.WithField("days", res.DaysWritten).Info("Bootstrap complete")
	return res, nil
}

type segment struct {
	quarter  domain.QuarterID
	from, to domain.Date
}

// quarterSegments splits [start, end] at quarter boundaries.
func quarterSegments(start, end domain.Date) []segment {
	var segs []segment
	for cur := start; cur <= end; {
		q := domain.QuarterOf(cur)
		to := q.End()
		if end < to {
			to = end
		}
		segs = append(segs, segment{quarter: q, from: cur, to: to})
		cur = to.Next()
	}
	return segs
}

func (u *Updater) fillSegment(ctx context.Context, seg segment) (int, error) {
	written := 0
	for d := seg.from; d <= seg.to; d = d.Next() {
		var value float64
		err := u.retry.Do(ctx, func(ctx context.Context) error {
			v, fetchErr := u.source.FetchRate(ctx, d)
			if fetchErr != nil {
				return fetchErr
			}
			value = v
			return nil
		})
		if err != nil {
			return written, err
		}

		if err := u.writeDay(ctx, seg.quarter, d, value); err != nil {
			return written, err
		}
		written++

		if err := u.pause(ctx); err != nil {
			return written, err
		}
	}
	return written, nil
}

func (u *Updater) writeDay(ctx context.Context, q domain.QuarterID, d domain.Date, value float64) error {
	ds, ok, err := u.store.ReadCurrent(ctx, q)
	if err != nil {
		return err
	}
	if !ok {
		ds = domain.NewQuarterDataset(q)
	}

	ds.Rates[d] = domain.ExchangeRate{
		Date:       d,
		RateJPY:    value,
		Source:     u.source.SourceID(),
		CapturedAt: u.now().UnixMilli(),
	}
	return u.store.WriteCurrent(ctx, q, ds)
}

// pause enforces the inter-request delay the provider's rate limits ask for.
func (u *Updater) pause(ctx context.Context) error {
	if u.pace <= 0 {
		return nil
	}
	t := time.NewTimer(u.pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
