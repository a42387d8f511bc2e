package kafka

import (
	"testing"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	rec := domain.Record{
		Pizzeria:          "Pizzeria Paradiso",
		Timestamp:         "2024-04-26 22:15:00",
		DayOfWeek:         "Friday",
		Hour:              22,
		LiveTraffic:       42,
		HistoricalTraffic: 17,
		Anomaly:           25,
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("Pizzeria Paradiso"), msg.Key)
	assert.JSONEq(t, `{
		"pizzeria": "Pizzeria Paradiso",
		"timestamp": "2024-04-26 22:15:00",
		"day_of_week": "Friday",
		"hour": 22,
		"live_traffic": 42,
		"historical_traffic": 17,
		"anomaly": 25
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "pizzeria", msg.Headers[0].Key)
	assert.Equal(t, []byte("Pizzeria Paradiso"), msg.Headers[0].Value)
	assert.Equal(t, "captured_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26 22:15:00"), msg.Headers[1].Value)
}

func TestPublisher_Name(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "traffic-observations", nil)
	defer p.Close()
	assert.Equal(t, "kafka", p.Name())
}
