package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessDate_UsesBusinessZone(t *testing.T) {
	// 01:00 UTC 在 UTC-3 仍是前一天
	ts := time.Date(2024, 5, 21, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-20", BusinessDate(ts).String())
	assert.Equal(t, "2024-05-21", DateOf(ts).String())
}

func TestDateCompare(t *testing.T) {
	a := Date{2024, time.January, 31}
	b := Date{2024, time.February, 1}
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(Date{2024, time.January, 31}))
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2024-05-20 14:30")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, Location(), got.Location())

	day, err := ParseDateTime("2024-05-20")
	require.NoError(t, err)
	assert.Equal(t, 0, day.Hour())

	_, err = ParseDateTime("20/05/2024")
	assert.Error(t, err)
}

func TestEndOfDayInclusive(t *testing.T) {
	start, err := ParseDate("2024-05-01")
	require.NoError(t, err)
	end := EndOfDay(start.AddDate(0, 0, 30))

	assert.True(t, WithinInclusive(start, start, end))
	assert.True(t, WithinInclusive(end, start, end))
	assert.False(t, WithinInclusive(end.Add(time.Nanosecond), start, end))
	assert.Equal(t, "2024-05-31", BusinessDate(end).String())
}
