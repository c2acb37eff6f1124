package kst

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, year := range []int{1999, 2024, 2025} {
		for month := time.January; month <= time.December; month++ {
			for _, day := range []int{1, 15, 28} {
				for _, hour := range []int{0, 8, 9, 15, 23} {
					x := At(year, month, day, hour, 30, 0)
					assert.True(t, FromComponents(ToComponents(x)).Equal(x), "round trip %v", x)
				}
			}
		}
	}
}

func TestRoundTripKeepsSubSecond(t *testing.T) {
	x := time.Date(2025, 3, 10, 1, 2, 3, 456789, time.UTC)
	assert.True(t, FromComponents(ToComponents(x)).Equal(x))
}

func TestToComponentsIgnoresHostZone(t *testing.T) {
	prev := time.Local
	t.Cleanup(func() { time.Local = prev })
	time.Local = time.FixedZone("PST", -8*3600)

	// 2025-01-05T20:00Z is already Monday 05:00 in Seoul.
	c := ToComponents(time.Date(2025, 1, 5, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, Components{Year: 2025, Month: time.January, Day: 6, Hour: 5}, c)
}

func TestFromComponentsSubtractsOffset(t *testing.T) {
	got := At(2025, time.January, 6, 10, 0, 0)
	assert.Equal(t, time.Date(2025, 1, 6, 1, 0, 0, 0, time.UTC), got)
}

func TestFromComponentsNormalizesOutOfRange(t *testing.T) {
	// Day 0 of March is the last day of February.
	assert.Equal(t, "2024-02-29", DateKey(At(2024, time.March, 0, 12, 0, 0)))
	assert.Equal(t, "2025-02-28", DateKey(At(2025, time.March, 0, 12, 0, 0)))
	// Day 32 of January rolls into February.
	assert.Equal(t, "2025-02-01", DateKey(At(2025, time.January, 32, 12, 0, 0)))
	// Month 13 is January of the next year.
	assert.Equal(t, "2026-01-15", DateKey(At(2025, 13, 15, 12, 0, 0)))
}

func TestDateKeyUsesKSTDate(t *testing.T) {
	assert.Equal(t, "2025-03-11", DateKey(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-03-10", DateKey(time.Date(2025, 3, 10, 14, 59, 59, 0, time.UTC)))
}

func TestMonthBoundaries(t *testing.T) {
	now := At(2025, time.December, 27, 9, 0, 0)

	assert.Equal(t, At(2025, time.December, 1, 0, 0, 0), StartOfMonth(now, 0))
	assert.Equal(t, At(2026, time.January, 1, 0, 0, 0), StartOfMonth(now, 1))

	end := EndOfMonth(now, 1)
	assert.Equal(t, "2026-01-31", DateKey(end))
	assert.Equal(t, At(2026, time.February, 1, 0, 0, 0), end.Add(time.Nanosecond))

	febEnd := EndOfMonth(At(2024, time.February, 3, 0, 0, 0), 0)
	assert.Equal(t, "2024-02-29", DateKey(febEnd))
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2025-01-27")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.January, Day: 27}, d)
	assert.Equal(t, "2025-01-27", d.String())
	assert.Equal(t, "2025-01-27", DateKey(d.End()))
	assert.Equal(t, "2025-01-27", DateKey(d.Start()))

	tod, err := ParseTimeOfDay("10:00")
	require.NoError(t, err)
	assert.Equal(t, At(2025, time.January, 27, 10, 0, 0), d.At(tod))
	assert.Equal(t, tod, TimeOfDayOf(d.At(tod)))

	assert.True(t, d.Before(Date{Year: 2025, Month: time.February, Day: 1}))
	assert.True(t, d.After(Date{Year: 2024, Month: time.December, Day: 31}))
	assert.Equal(t, 0, d.Compare(DateOf(d.At(tod))))

	_, err = ParseDate("27/01/2025")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}
