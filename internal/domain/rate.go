package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ExchangeRate is one day's USD/JPY rate as captured from the upstream
// provider. Immutable once written; a later capture for the same date
// replaces the whole record.
type ExchangeRate struct {
	Date       Date
	RateJPY    float64
	Source     string
	CapturedAt int64 // epoch millis
}

type rateField struct {
	JPY float64 `json:"JPY"`
}

type exchangeRateWire struct {
	Date      Date      `json:"date"`
	Rate      rateField `json:"rate"`
	Source    string    `json:"source"`
	Timestamp int64     `json:"timestamp"`
}

func (r ExchangeRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(exchangeRateWire{
		Date:      r.Date,
		Rate:      rateField{JPY: r.RateJPY},
		Source:    r.Source,
		Timestamp: r.CapturedAt,
	})
}

// UnmarshalJSON accepts the tagged rate shape ({"JPY": n}) and, for data
// written by older tooling, a bare number. Either way the in-memory
// representation is the same and the tagged shape wins on the next write.
func (r *ExchangeRate) UnmarshalJSON(data []byte) error {
	var wire struct {
		Date      Date            `json:"date"`
		Rate      json.RawMessage `json:"rate"`
		Source    string          `json:"source"`
		Timestamp int64           `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Date = wire.Date
	r.Source = wire.Source
	r.CapturedAt = wire.Timestamp

	if len(wire.Rate) == 0 {
		return errors.New("exchange rate: missing rate field")
	}
	var tagged rateField
	if err := json.Unmarshal(wire.Rate, &tagged); err == nil {
		r.RateJPY = tagged.JPY
		return nil
	}
	var bare float64
	if err := json.Unmarshal(wire.Rate, &bare); err != nil {
		return fmt.Errorf("exchange rate for %s: unrecognized rate shape", wire.Date)
	}
	r.RateJPY = bare
	return nil
}
