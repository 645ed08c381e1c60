package datetime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		d, err := ParseDate("2025-06-30")
		require.NoError(t, err)
		assert.Equal(t, 2025, d.Year())
		assert.Equal(t, time.June, d.Month())
		assert.Equal(t, 30, d.Day())
		assert.Equal(t, time.UTC, d.Location())
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := ParseDate("not-a-date")
		assert.Error(t, err)
	})
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.June, 30)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-30"`, string(raw))

	var parsed Date
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.True(t, parsed.Equal(d.Time))
}

func TestDate_UnmarshalAcceptsTimestamp(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-30T18:45:00+03:00"`), &d))
	assert.Equal(t, "2025-06-30", d.String())
	assert.Zero(t, d.Hour())
}

func TestDate_ZeroMarshalsAsNull(t *testing.T) {
	raw, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2025, 6, 30, 14, 30, 5, 123, time.UTC)

	start := StartOfDay(at)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), start)

	end := EndOfDay(at)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 30, end.Day())
	assert.True(t, end.Before(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}
