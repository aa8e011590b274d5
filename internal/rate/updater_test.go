package rate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/165cm/fxarchive/internal/adapters/cache"
	"github.com/165cm/fxarchive/internal/adapters/fsstore"
	"github.com/165cm/fxarchive/internal/adapters/retrypolicy"
	"github.com/165cm/fxarchive/internal/domain"
)

// --- Testify mocks ---

type MockRateSource struct{ mock.Mock }

func (m *MockRateSource) FetchRate(ctx context.Context, date domain.Date) (float64, error) {
	args := m.Called(ctx, date)
	rate, _ := args.Get(0).(float64)
	return rate, args.Error(1)
}

func (m *MockRateSource) FetchRateRange(ctx context.Context, start, end domain.Date) (map[domain.Date]float64, error) {
	args := m.Called(ctx, start, end)
	rates, _ := args.Get(0).(map[domain.Date]float64)
	return rates, args.Error(1)
}

func (m *MockRateSource) SourceID() string { return "Frankfurter" }

type recordingNotifier struct{ errs []error }

func (n *recordingNotifier) NotifyError(ctx context.Context, err error) {
	n.errs = append(n.errs, err)
}

// --- helpers ---

func newTestUpdater(t *testing.T, source *MockRateSource, now domain.Date) (*Updater, *fsstore.Store) {
	t.Helper()
	store := fsstore.New(fsstore.Config{BaseDir: t.TempDir()})
	rateCache, err := cache.NewRateCache(128)
	require.NoError(t, err)
	t.Cleanup(rateCache.Close)

	u := NewUpdater(store, source, retrypolicy.None{}, rateCache, 0, 30)
	u.now = func() time.Time { return now.Time() }
	return u, store
}

func seedCurrent(t *testing.T, store *fsstore.Store, q domain.QuarterID, rates map[domain.Date]float64) {
	t.Helper()
	ds := domain.NewQuarterDataset(q)
	for d, v := range rates {
		ds.Rates[d] = domain.ExchangeRate{Date: d, RateJPY: v, Source: "Frankfurter", CapturedAt: 1}
	}
	require.NoError(t, store.WriteCurrent(context.Background(), q, ds))
}

var testQ1 = domain.QuarterID{Year: 2024, Quarter: 1}

// --- incremental path ---

func TestRun_IncrementalFillsGap(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-03-12")
	seedCurrent(t, store, testQ1, map[domain.Date]float64{"2024-03-10": 147.0})

	source.On("FetchRate", mock.Anything, domain.Date("2024-03-11")).Return(147.1, nil).Once()
	source.On("FetchRate", mock.Anything, domain.Date("2024-03-12")).Return(147.2, nil).Once()

	res, err := u.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.DaysWritten)
	require.Empty(t, res.Finalized)

	ds, ok, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, ds.Rates, 3)
	require.InDelta(t, 147.1, ds.Rates["2024-03-11"].RateJPY, 1e-9)
	require.InDelta(t, 147.2, ds.Rates["2024-03-12"].RateJPY, 1e-9)
	require.Equal(t, "Frankfurter", ds.Rates["2024-03-12"].Source)
	source.AssertExpectations(t)
}

func TestRun_AlreadyUpToDate(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-03-12")
	seedCurrent(t, store, testQ1, map[domain.Date]float64{"2024-03-12": 147.2})

	res, err := u.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, res.DaysWritten)
	source.AssertNotCalled(t, "FetchRate")
}

func TestRun_FromDate_DeletesThenRefetches(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-01-15")

	seeded := map[domain.Date]float64{}
	for d := domain.Date("2024-01-01"); d <= "2024-01-10"; d = d.Next() {
		seeded[d] = 100.0
	}
	seedCurrent(t, store, testQ1, seeded)

	source.On("FetchRate", mock.Anything, mock.Anything).Return(150.0, nil).Times(15)

	from := domain.Date("2024-01-01")
	res, err := u.Run(context.Background(), &from)
	require.NoError(t, err)
	require.Equal(t, 15, res.DaysWritten)

	ds, ok, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, ds.Rates, 15)
	// The previously stored days were refreshed, not kept.
	for d := domain.Date("2024-01-01"); d <= "2024-01-10"; d = d.Next() {
		require.InDelta(t, 150.0, ds.Rates[d].RateJPY, 1e-9)
	}
	source.AssertExpectations(t)
}

func TestRun_FromDate_Idempotent(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-01-05")
	source.On("FetchRate", mock.Anything, mock.Anything).Return(148.5, nil)

	from := domain.Date("2024-01-03")
	_, err := u.Run(context.Background(), &from)
	require.NoError(t, err)
	first, _, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)

	_, err = u.Run(context.Background(), &from)
	require.NoError(t, err)
	second, _, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Rates)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Rates)
	require.NoError(t, err)
	require.Equal(t, string(firstJSON), string(secondJSON))
}

func TestRun_AbortsOnFirstFetchFailure(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-03-12")
	seedCurrent(t, store, testQ1, map[domain.Date]float64{"2024-03-09": 146.8})

	boom := &domain.UpstreamError{Provider: "Frankfurter", Err: errors.New("503")}
	source.On("FetchRate", mock.Anything, domain.Date("2024-03-10")).Return(147.0, nil).Once()
	source.On("FetchRate", mock.Anything, domain.Date("2024-03-11")).Return(0.0, boom).Once()

	res, err := u.Run(context.Background(), nil)
	require.Error(t, err)
	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, 1, res.DaysWritten)

	ds, _, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)
	require.Contains(t, ds.Rates, domain.Date("2024-03-10"))
	require.NotContains(t, ds.Rates, domain.Date("2024-03-11"))
	require.NotContains(t, ds.Rates, domain.Date("2024-03-12"))
	source.AssertExpectations(t)
}

func TestRun_FromOutsideActiveQuarter(t *testing.T) {
	source := new(MockRateSource)
	u, _ := newTestUpdater(t, source, "2024-04-02")

	from := domain.Date("2024-03-15")
	_, err := u.Run(context.Background(), &from)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	source.AssertNotCalled(t, "FetchRate")
}

// --- quarter end ---

func TestRun_FinalizesOnQuarterEnd(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-03-31")
	seedCurrent(t, store, testQ1, map[domain.Date]float64{"2024-03-29": 151.3})

	source.On("FetchRate", mock.Anything, domain.Date("2024-03-30")).Return(151.4, nil).Once()
	source.On("FetchRate", mock.Anything, domain.Date("2024-03-31")).Return(151.5, nil).Once()

	res, err := u.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []domain.QuarterID{testQ1}, res.Finalized)

	sealed, ok, err := store.ReadHistorical(context.Background(), testQ1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, sealed.Hash)
	require.Len(t, sealed.Rates, 3)

	next, ok, err := store.ReadCurrent(context.Background(), domain.QuarterID{Year: 2024, Quarter: 2})
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, next.Rates)
	source.AssertExpectations(t)
}

// --- bootstrap path ---

func TestRun_BootstrapWhenEmpty(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-02-15")

	fetched := map[domain.Date]float64{
		"2024-01-16": 146.0,
		"2024-02-01": 146.5,
		"2024-02-15": 150.2,
	}
	source.
		On("FetchRateRange", mock.Anything, domain.Date("2024-01-16"), domain.Date("2024-02-15")).
		Return(fetched, nil).Once()

	res, err := u.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, res.DaysWritten)

	ds, ok, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, ds.Rates, 3)
	require.InDelta(t, 150.2, ds.Rates["2024-02-15"].RateJPY, 1e-9)
	source.AssertExpectations(t)
}

func TestRun_BootstrapClampedToQuarterStart(t *testing.T) {
	source := new(MockRateSource)
	u, _ := newTestUpdater(t, source, "2024-01-10")

	source.
		On("FetchRateRange", mock.Anything, domain.Date("2024-01-01"), domain.Date("2024-01-10")).
		Return(map[domain.Date]float64{"2024-01-05": 148.5}, nil).Once()

	res, err := u.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.DaysWritten)
	source.AssertExpectations(t)
}

func TestRun_BootstrapFetchFailure(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-02-15")

	boom := &domain.UpstreamError{Provider: "Frankfurter", Err: errors.New("timeout")}
	source.On("FetchRateRange", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := u.Run(context.Background(), nil)
	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)

	_, ok, err := store.ReadCurrent(context.Background(), testQ1)
	require.NoError(t, err)
	require.False(t, ok)
}

// --- retry wiring ---

func TestRun_RetryPolicyRecoversTransientFailure(t *testing.T) {
	source := new(MockRateSource)
	u, store := newTestUpdater(t, source, "2024-03-12")
	u.retry = retrypolicy.Fibonacci{Base: time.Millisecond, MaxRetries: 2}
	seedCurrent(t, store, testQ1, map[domain.Date]float64{"2024-03-11": 147.1})

	boom := &domain.UpstreamError{Provider: "Frankfurter", Err: errors.New("flaky")}
	source.On("FetchRate", mock.Anything, domain.Date("2024-03-12")).Return(0.0, boom).Once()
	source.On("FetchRate", mock.Anything, domain.Date("2024-03-12")).Return(147.2, nil).Once()

	res, err := u.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.DaysWritten)
	source.AssertExpectations(t)
}

// --- segments ---

func TestQuarterSegments_SingleQuarter(t *testing.T) {
	segs := quarterSegments("2024-03-10", "2024-03-12")
	require.Len(t, segs, 1)
	require.Equal(t, testQ1, segs[0].quarter)
	require.Equal(t, domain.Date("2024-03-10"), segs[0].from)
	require.Equal(t, domain.Date("2024-03-12"), segs[0].to)
}

func TestQuarterSegments_SplitsAtBoundary(t *testing.T) {
	segs := quarterSegments("2024-03-30", "2024-04-02")
	require.Len(t, segs, 2)
	require.Equal(t, testQ1, segs[0].quarter)
	require.Equal(t, domain.Date("2024-03-31"), segs[0].to)
	require.Equal(t, domain.QuarterID{Year: 2024, Quarter: 2}, segs[1].quarter)
	require.Equal(t, domain.Date("2024-04-01"), segs[1].from)
	require.Equal(t, domain.Date("2024-04-02"), segs[1].to)
}
