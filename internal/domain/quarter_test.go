package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuarterOf(t *testing.T) {
	require.Equal(t, QuarterID{Year: 2024, Quarter: 1}, QuarterOf("2024-01-01"))
	require.Equal(t, QuarterID{Year: 2024, Quarter: 1}, QuarterOf("2024-03-31"))
	require.Equal(t, QuarterID{Year: 2024, Quarter: 2}, QuarterOf("2024-04-01"))
	require.Equal(t, QuarterID{Year: 2024, Quarter: 3}, QuarterOf("2024-09-30"))
	require.Equal(t, QuarterID{Year: 2024, Quarter: 4}, QuarterOf("2024-12-31"))
}

func TestQuarterID_String(t *testing.T) {
	require.Equal(t, "2024Q1", QuarterID{Year: 2024, Quarter: 1}.String())
	require.Equal(t, "2019Q4", QuarterID{Year: 2019, Quarter: 4}.String())
}

func TestQuarterID_Bounds(t *testing.T) {
	q1 := QuarterID{Year: 2024, Quarter: 1}
	require.Equal(t, Date("2024-01-01"), q1.Start())
	require.Equal(t, Date("2024-03-31"), q1.End())

	q4 := QuarterID{Year: 2023, Quarter: 4}
	require.Equal(t, Date("2023-10-01"), q4.Start())
	require.Equal(t, Date("2023-12-31"), q4.End())

	// Q2 ends on June 30, not 31.
	require.Equal(t, Date("2024-06-30"), QuarterID{Year: 2024, Quarter: 2}.End())
}

func TestQuarterID_Next_WrapsYear(t *testing.T) {
	require.Equal(t, QuarterID{Year: 2024, Quarter: 2}, QuarterID{Year: 2024, Quarter: 1}.Next())
	require.Equal(t, QuarterID{Year: 2025, Quarter: 1}, QuarterID{Year: 2024, Quarter: 4}.Next())
}

func TestQuarterID_Contains(t *testing.T) {
	q := QuarterID{Year: 2024, Quarter: 1}
	require.True(t, q.Contains("2024-01-01"))
	require.True(t, q.Contains("2024-03-31"))
	require.False(t, q.Contains("2023-12-31"))
	require.False(t, q.Contains("2024-04-01"))
}
