package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// QuarterDataset holds every captured rate of one quarter. Exactly one
// dataset is current (mutable) at a time; sealed datasets carry a
// registered hash and must not change afterwards.
type QuarterDataset struct {
	Start Date                  `json:"startDate"`
	End   Date                  `json:"endDate"`
	Rates map[Date]ExchangeRate `json:"rates"`
	Hash  string                `json:"hash"`
}

// NewQuarterDataset returns an empty dataset spanning the given quarter.
func NewQuarterDataset(q QuarterID) QuarterDataset {
	return QuarterDataset{
		Start: q.Start(),
		End:   q.End(),
		Rates: map[Date]ExchangeRate{},
	}
}

// Validate checks the dataset's shape: bounds present and ordered, every
// key inside [Start, End] and matching its entry, every rate positive.
func (ds QuarterDataset) Validate() error {
	if ds.Start == "" || ds.End == "" {
		return &ValidationError{Reason: "dataset bounds missing"}
	}
	if ds.End < ds.Start {
		return &ValidationError{Reason: fmt.Sprintf("dataset end %s before start %s", ds.End, ds.Start)}
	}
	for d, r := range ds.Rates {
		if d < ds.Start || d > ds.End {
			return &ValidationError{Reason: fmt.Sprintf("rate date %s outside [%s, %s]", d, ds.Start, ds.End)}
		}
		if r.Date != d {
			return &ValidationError{Reason: fmt.Sprintf("rate keyed %s carries date %s", d, r.Date)}
		}
		if r.RateJPY <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("non-positive rate %v on %s", r.RateJPY, d)}
		}
	}
	return nil
}

// LatestDate is the newest day with a stored rate.
func (ds QuarterDataset) LatestDate() (Date, bool) {
	var latest Date
	for d := range ds.Rates {
		if d > latest {
			latest = d
		}
	}
	return latest, latest != ""
}

// DatasetHash computes the canonical SHA-256 of a dataset's content.
// Only startDate, endDate and rates participate; the stored hash field
// would otherwise feed back into itself. json.Marshal emits map keys in
// sorted order, which keeps the serialization stable across runs.
func DatasetHash(ds QuarterDataset) (string, error) {
	canonical := struct {
		Start Date                  `json:"startDate"`
		End   Date                  `json:"endDate"`
		Rates map[Date]ExchangeRate `json:"rates"`
	}{ds.Start, ds.End, ds.Rates}

	b, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to serialize dataset for hashing: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
