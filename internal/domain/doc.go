// Package domain models Google Maps "popular times" observations for a fixed
// set of pizzerias.
//
// # Data Source
//
// Each target is a Google Maps business page. The page renders a bar chart of
// visit frequency; every bar is a div carrying the marker class "dpoVLd" and an
// aria-label describing that hour. The bar for the current hour carries a
// sentence that compares live traffic with the historical norm. Pages are
// requested with a French locale, so the label is French:
//
//	"Taux de fréquentation actuel de 42 % (17 % en général)."
//
// which reads "current occupancy 42 % (17 % usually)". Labels for other hours
// do not contain the word "actuel" and are ignored. Google inserts narrow
// no-break spaces and repeated whitespace around the percent sign, so every
// whitespace run is collapsed to a single space before matching. See
// [ParseTraffic].
//
// # Capture Context
//
// Each cycle captures wall-clock time once, in the configured timezone
// (America/New_York by default). The timestamp is stored as
// "YYYY-MM-DD HH:MM:SS" together with the English weekday name and the hour,
// so rows can be grouped by weekday/hour without timezone arithmetic. See
// [NewCapture].
//
// # Anomaly
//
// anomaly = live_traffic - historical_traffic. Positive values mean the
// pizzeria is busier than usual. The value is never set independently: the
// store declares it as a generated column and the write path recomputes it via
// [Observation.Record]. Observations missing either percentage are never
// persisted.
//
// # Collection Window
//
// Collection runs only outside the overnight lull: an hour h is active when
// h > End or h < Start (defaults Start=1, End=9, i.e. idle from 01:00 through
// 09:59). See [Window].
package domain
