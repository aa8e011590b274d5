package domain

import (
	"fmt"
	"time"
)

// QuarterID identifies one calendar quarter, the partition unit for both
// storage and archival. Its string form ("2024Q1") keys the checksum registry.
type QuarterID struct {
	Year    int
	Quarter int // 1..4
}

// QuarterOf derives the owning quarter of a calendar day.
func QuarterOf(d Date) QuarterID {
	t := d.Time()
	return QuarterID{Year: t.Year(), Quarter: (int(t.Month())-1)/3 + 1}
}

func (q QuarterID) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Quarter)
}

// Start is the first calendar day of the quarter.
func (q QuarterID) Start() Date {
	return DateOf(time.Date(q.Year, time.Month((q.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC))
}

// End is the last calendar day of the quarter.
func (q QuarterID) End() Date {
	firstOfNext := time.Date(q.Year, time.Month(q.Quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
	return DateOf(firstOfNext.AddDate(0, 0, -1))
}

func (q QuarterID) Next() QuarterID {
	if q.Quarter == 4 {
		return QuarterID{Year: q.Year + 1, Quarter: 1}
	}
	return QuarterID{Year: q.Year, Quarter: q.Quarter + 1}
}

func (q QuarterID) Contains(d Date) bool {
	return d >= q.Start() && d <= q.End()
}
