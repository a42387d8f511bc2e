package domain

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNewCapture(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-07-05 02:30 UTC is 2024-07-04 22:30 EDT.
	now := time.Date(2024, time.July, 5, 2, 30, 15, 0, time.UTC)
	c := NewCapture(now, ny)

	assert.Equal(t, "2024-07-04 22:30:15", c.Timestamp)
	assert.Equal(t, "Thursday", c.DayOfWeek)
	assert.Equal(t, 22, c.Hour)
}

func TestNewCapture_NilLocationKeepsOwnZone(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 5, 0, 0, time.UTC)
	c := NewCapture(now, nil)

	assert.Equal(t, "2024-01-01 00:05:00", c.Timestamp)
	assert.Equal(t, "Monday", c.DayOfWeek)
	assert.Equal(t, 0, c.Hour)
}

func TestNewCapture_FromFakeClock(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 19, 45, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	c := NewCapture(Now(), time.UTC)
	assert.Equal(t, "2024-04-26 19:45:00", c.Timestamp)
	assert.Equal(t, "Friday", c.DayOfWeek)
	assert.Equal(t, 19, c.Hour)
}

func TestObservation_Record(t *testing.T) {
	capture := Capture{Timestamp: "2024-04-26 19:45:00", DayOfWeek: "Friday", Hour: 19}

	t.Run("anomaly is live minus historical", func(t *testing.T) {
		obs := Observation{Pizzeria: "Andy's", Capture: capture, LiveTraffic: intPtr(42), HistoricalTraffic: intPtr(17)}
		rec, ok := obs.Record()

		require.True(t, ok)
		assert.Equal(t, Record{
			Pizzeria:          "Andy's",
			Timestamp:         "2024-04-26 19:45:00",
			DayOfWeek:         "Friday",
			Hour:              19,
			LiveTraffic:       42,
			HistoricalTraffic: 17,
			Anomaly:           25,
		}, rec)
	})

	t.Run("negative anomaly", func(t *testing.T) {
		obs := Observation{Pizzeria: "Andy's", Capture: capture, LiveTraffic: intPtr(10), HistoricalTraffic: intPtr(55)}
		rec, ok := obs.Record()

		require.True(t, ok)
		assert.Equal(t, -45, rec.Anomaly)
	})

	incomplete := []struct {
		name string
		live *int
		hist *int
	}{
		{"live absent", nil, intPtr(17)},
		{"historical absent", intPtr(42), nil},
		{"both absent", nil, nil},
	}
	for _, tt := range incomplete {
		t.Run(tt.name, func(t *testing.T) {
			obs := Observation{Pizzeria: "Andy's", Capture: capture, LiveTraffic: tt.live, HistoricalTraffic: tt.hist}
			rec, ok := obs.Record()

			assert.False(t, ok)
			assert.False(t, obs.Complete())
			assert.Equal(t, Record{}, rec)
		})
	}
}
