package domain

import "time"

// TimestampLayout is the wall-clock format stored in traffic_logs.timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Capture is the time context shared by every observation of one cycle.
type Capture struct {
	Timestamp string
	DayOfWeek string
	Hour      int
}

// NewCapture derives the capture context from now, converted to loc.
// A nil loc keeps now's own location.
func NewCapture(now time.Time, loc *time.Location) Capture {
	if loc != nil {
		now = now.In(loc)
	}
	return Capture{
		Timestamp: now.Format(TimestampLayout),
		DayOfWeek: now.Weekday().String(),
		Hour:      now.Hour(),
	}
}

// Observation is one traffic reading for one pizzeria, before persistence.
// Either traffic value may be absent when extraction failed.
type Observation struct {
	Pizzeria string
	Capture
	LiveTraffic       *int
	HistoricalTraffic *int
}

// Complete reports whether both traffic values are present.
func (o Observation) Complete() bool {
	return o.LiveTraffic != nil && o.HistoricalTraffic != nil
}

// Record returns the persisted form of the observation with its anomaly
// computed. ok is false when either traffic value is absent; such
// observations are never stored.
func (o Observation) Record() (rec Record, ok bool) {
	if !o.Complete() {
		return Record{}, false
	}
	live, hist := *o.LiveTraffic, *o.HistoricalTraffic
	return Record{
		Pizzeria:          o.Pizzeria,
		Timestamp:         o.Timestamp,
		DayOfWeek:         o.DayOfWeek,
		Hour:              o.Hour,
		LiveTraffic:       live,
		HistoricalTraffic: hist,
		Anomaly:           live - hist,
	}, true
}

// Record is a stored traffic_logs row. Anomaly always equals
// LiveTraffic - HistoricalTraffic.
type Record struct {
	Pizzeria          string `json:"pizzeria"`
	Timestamp         string `json:"timestamp"`
	DayOfWeek         string `json:"day_of_week"`
	Hour              int    `json:"hour"`
	LiveTraffic       int    `json:"live_traffic"`
	HistoricalTraffic int    `json:"historical_traffic"`
	Anomaly           int    `json:"anomaly"`
}

// AppendResult describes the outcome of a store append.
type AppendResult struct {
	// Skipped is true when the observation was incomplete and nothing was written.
	Skipped bool
	// Record is the row that was written. Zero when Skipped.
	Record Record
}
