package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/domain"
)

const (
	defaultCurrentDir    = "current"
	defaultHistoricalDir = "historical"
	registryFile         = "checksum.json"
	markerFile           = "last_update.json"
)

// Config locates the store's files. Everything derives from BaseDir; the
// subdirectory names can be overridden, which isolated test fixtures use.
type Config struct {
	BaseDir       string
	CurrentDir    string
	HistoricalDir string
}

// Store keeps quarter datasets as JSON files: one mutable current dataset
// per quarter under CurrentDir, sealed copies under HistoricalDir/{year},
// a flat checksum registry and a last-update marker. Every write is a
// whole-file atomic replacement, so a crash mid-update can lose at most
// the day being written.
type Store struct {
	current    string
	historical string
	registry   string
	marker     string
	now        func() time.Time
}

func New(cfg Config) *Store {
	currentDir := cfg.CurrentDir
	if currentDir == "" {
		currentDir = defaultCurrentDir
	}
	historicalDir := cfg.HistoricalDir
	if historicalDir == "" {
		historicalDir = defaultHistoricalDir
	}
	current := filepath.Join(cfg.BaseDir, currentDir)
	return &Store{
		current:    current,
		historical: filepath.Join(cfg.BaseDir, historicalDir),
		registry:   filepath.Join(cfg.BaseDir, registryFile),
		marker:     filepath.Join(current, markerFile),
		now:        time.Now,
	}
}

func (s *Store) currentPath(q domain.QuarterID) string {
	return filepath.Join(s.current, q.String()+".json")
}

func (s *Store) historicalPath(q domain.QuarterID) string {
	return filepath.Join(s.historical, strconv.Itoa(q.Year), fmt.Sprintf("Q%d.json", q.Quarter))
}

// ReadCurrent loads the mutable dataset of the given quarter, reporting
// absence rather than an error when none has been created yet.
func (s *Store) ReadCurrent(ctx context.Context, q domain.QuarterID) (domain.QuarterDataset, bool, error) {
	return s.readDataset(s.currentPath(q))
}

// WriteCurrent replaces the quarter's whole current dataset and bumps the
// last-update marker.
func (s *Store) WriteCurrent(ctx context.Context, q domain.QuarterID, ds domain.QuarterDataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if err := s.writeJSON(s.currentPath(q), ds); err != nil {
		return err
	}
	return s.touchMarker()
}

// ReadHistorical loads a sealed dataset.
func (s *Store) ReadHistorical(ctx context.Context, q domain.QuarterID) (domain.QuarterDataset, bool, error) {
	return s.readDataset(s.historicalPath(q))
}

// Finalize seals the quarter: the current dataset is hashed, copied into
// historical storage with the hash attached, the hash is registered, and
// a fresh empty dataset for the next quarter takes its place.
func (s *Store) Finalize(ctx context.Context, q domain.QuarterID) error {
	ds, ok, err := s.ReadCurrent(ctx, q)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ValidationError{Reason: "finalize " + q.String(), Err: domain.ErrNoCurrentDataset}
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	hash, err := domain.DatasetHash(ds)
	if err != nil {
		return err
	}
	ds.Hash = hash

	if err := s.writeJSON(s.historicalPath(q), ds); err != nil {
		return err
	}
	if err := s.registerHash(q, hash); err != nil {
		return err
	}

	next := q.Next()
	if err := s.writeJSON(s.currentPath(next), domain.NewQuarterDataset(next)); err != nil {
		return err
	}
	if err := os.Remove(s.currentPath(q)); err != nil {
		return &domain.StorageError{Op: "remove", Path: s.currentPath(q), Err: err}
	}

	logrus.WithFields(logrus.Fields{"quarter": q.String(), "hash": hash, "rates": len(ds.Rates)}).
		Info("Quarter sealed")
	return s.touchMarker()
}

// DeleteAfter drops every current-dataset entry dated strictly after the
// cutoff. Sealed quarters are untouched. A missing current dataset is a
// no-op.
func (s *Store) DeleteAfter(ctx context.Context, q domain.QuarterID, cutoff domain.Date) error {
	ds, ok, err := s.ReadCurrent(ctx, q)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	dropped := 0
	for d := range ds.Rates {
		if d > cutoff {
			delete(ds.Rates, d)
			dropped++
		}
	}
	if dropped == 0 {
		return nil
	}

	logrus.WithFields(logrus.Fields{"quarter": q.String(), "cutoff": cutoff, "dropped": dropped}).
		Info("Dropped entries after cutoff")
	return s.WriteCurrent(ctx, q, ds)
}

// LatestDate is the newest day stored in the quarter's current dataset.
func (s *Store) LatestDate(ctx context.Context, q domain.QuarterID) (domain.Date, bool, error) {
	ds, ok, err := s.ReadCurrent(ctx, q)
	if err != nil || !ok {
		return "", false, err
	}
	latest, ok := ds.LatestDate()
	return latest, ok, nil
}

// RegisteredHash looks up the sealed hash recorded for a quarter.
func (s *Store) RegisteredHash(ctx context.Context, q domain.QuarterID) (string, bool, error) {
	reg, err := s.readRegistry()
	if err != nil {
		return "", false, err
	}
	hash, ok := reg[q.String()]
	return hash, ok, nil
}

func (s *Store) registerHash(q domain.QuarterID, hash string) error {
	reg, err := s.readRegistry()
	if err != nil {
		return err
	}
	reg[q.String()] = hash
	return s.writeJSON(s.registry, reg)
}

func (s *Store) readRegistry() (map[string]string, error) {
	b, err := os.ReadFile(s.registry)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "read", Path: s.registry, Err: err}
	}
	reg := map[string]string{}
	if err := json.Unmarshal(b, &reg); err != nil {
		return nil, &domain.StorageError{Op: "decode", Path: s.registry, Err: err}
	}
	return reg, nil
}

func (s *Store) readDataset(path string) (domain.QuarterDataset, bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.QuarterDataset{}, false, nil
	}
	if err != nil {
		return domain.QuarterDataset{}, false, &domain.StorageError{Op: "read", Path: path, Err: err}
	}

	var ds domain.QuarterDataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return domain.QuarterDataset{}, false, &domain.StorageError{Op: "decode", Path: path, Err: err}
	}
	if ds.Rates == nil {
		ds.Rates = map[domain.Date]domain.ExchangeRate{}
	}
	return ds, true, nil
}

func (s *Store) touchMarker() error {
	return s.writeJSON(s.marker, map[string]string{
		"lastUpdate": s.now().UTC().Format(time.RFC3339),
	})
}

// writeJSON performs an atomic whole-file replacement: the payload lands
// in a temp file in the target directory first, then renames over the
// destination.
func (s *Store) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &domain.StorageError{Op: "encode", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".fxarchive-*")
	if err != nil {
		return &domain.StorageError{Op: "create", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.StorageError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.StorageError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &domain.StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
