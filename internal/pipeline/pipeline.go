package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/couchcryptid/pizzeria-traffic/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Fetcher returns the raw traffic labels of one target page.
type Fetcher interface {
	Fetch(ctx context.Context, target domain.Target) ([]string, error)
}

// Session is a Fetcher bound to resources that live for one cycle,
// such as a browser process.
type Session interface {
	Fetcher
	Close() error
}

// SessionOpener acquires the fetch session for a cycle.
type SessionOpener interface {
	Open(ctx context.Context) (Session, error)
}

// Store persists observations. Incomplete observations are skipped, not
// written, and reported with AppendResult.Skipped.
type Store interface {
	Append(ctx context.Context, obs domain.Observation) (domain.AppendResult, error)
}

// Publisher fans a stored record out to a downstream system.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, rec domain.Record) error
}

// Settings tunes a Collector.
type Settings struct {
	Window   domain.Window
	Location *time.Location
	// MaxConcurrency bounds parallel targets. Zero means one task per target.
	MaxConcurrency int
	// CycleTimeout bounds a whole cycle. Zero disables the bound.
	CycleTimeout time.Duration
	// FetchMode labels fetch metrics.
	FetchMode string
}

// Collector runs collection cycles: gate, fan out fetch-parse-store per
// target, join.
type Collector struct {
	opener     SessionOpener
	store      Store
	publishers []Publisher
	settings   Settings
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Collector with the given stages and observability.
func New(opener SessionOpener, store Store, publishers []Publisher, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		opener:     opener,
		store:      store,
		publishers: publishers,
		settings:   settings,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil while a cycle holds an open fetch session,
// or an error describing why the collector is not ready.
func (c *Collector) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no fetch session open")
	}
	return nil
}

// RunCycle performs one collection cycle at now. Outside the active window
// it does nothing and returns a gated Report. Per-target failures are
// recorded in the Report; only a session that cannot be opened is returned
// as an error.
func (c *Collector) RunCycle(ctx context.Context, registry domain.Registry, now time.Time) (Report, error) {
	capture := domain.NewCapture(now, c.settings.Location)
	report := Report{Capture: capture}

	if !c.settings.Window.Active(capture.Hour) {
		report.Gated = true
		c.metrics.Cycles.WithLabelValues("gated").Inc()
		c.logger.Debug("outside collection window", "hour", capture.Hour,
			"window_start", c.settings.Window.Start, "window_end", c.settings.Window.End)
		return report, nil
	}

	start := time.Now()
	c.metrics.CycleRunning.Set(1)
	defer c.metrics.CycleRunning.Set(0)

	if c.settings.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.CycleTimeout)
		defer cancel()
	}

	session, err := c.opener.Open(ctx)
	if err != nil {
		c.metrics.Cycles.WithLabelValues("failed").Inc()
		return report, fmt.Errorf("open fetch session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			c.logger.Warn("close fetch session failed", "error", err)
		}
	}()
	c.ready.Store(true)
	defer c.ready.Store(false)

	targets := registry.Targets()
	c.logger.Info("cycle started", "targets", len(targets), "timestamp", capture.Timestamp)

	results := make([]TargetResult, len(targets))
	var g errgroup.Group
	g.SetLimit(concurrencyLimit(c.settings.MaxConcurrency, len(targets)))
	for i, target := range targets {
		g.Go(func() error {
			results[i] = c.collect(ctx, session, capture, target)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	report.Duration = time.Since(start)

	c.metrics.Cycles.WithLabelValues("completed").Inc()
	c.metrics.CycleDuration.Observe(report.Duration.Seconds())
	c.metrics.LastCycleTimestamp.SetToCurrentTime()
	c.logger.Info("cycle finished",
		"duration", report.Duration,
		"stored", report.Count(StatusStored),
		"skipped", report.Count(StatusSkipped),
		"fetch_failed", report.Count(StatusFetchFailed),
		"store_failed", report.Count(StatusStoreFailed),
	)
	return report, nil
}

// collect runs fetch, parse, append and publish for one target. It never
// fails; the outcome is carried in the returned TargetResult.
func (c *Collector) collect(ctx context.Context, f Fetcher, capture domain.Capture, target domain.Target) (res TargetResult) {
	start := time.Now()
	res.Target = target
	defer func() {
		res.Duration = time.Since(start)
		c.metrics.TargetsProcessed.WithLabelValues(string(res.Status)).Inc()
	}()

	logger := c.logger.With("pizzeria", target.Name)

	labels, err := f.Fetch(ctx, target)
	c.metrics.FetchDuration.WithLabelValues(c.settings.FetchMode).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Warn("fetch failed", "url", target.URL, "error", err)
		res.Status = StatusFetchFailed
		res.Err = err
		return res
	}

	live, hist := domain.ParseTraffic(labels)
	res.Live, res.Historical = live, hist

	obs := domain.Observation{
		Pizzeria:          target.Name,
		Capture:           capture,
		LiveTraffic:       live,
		HistoricalTraffic: hist,
	}
	result, err := c.store.Append(ctx, obs)
	if err != nil {
		logger.Error("store append failed", "error", err)
		res.Status = StatusStoreFailed
		res.Err = err
		return res
	}
	if result.Skipped {
		logger.Info("skipped logging: missing traffic data", "labels", len(labels))
		res.Status = StatusSkipped
		res.Err = domain.ErrParseMismatch
		return res
	}

	rec := result.Record
	res.Status = StatusStored
	res.Anomaly = &rec.Anomaly
	c.metrics.LastAnomaly.WithLabelValues(target.Name).Set(float64(rec.Anomaly))
	logger.Info("traffic logged",
		"live_traffic", rec.LiveTraffic,
		"historical_traffic", rec.HistoricalTraffic,
		"anomaly", rec.Anomaly,
	)

	c.publish(ctx, logger, rec)
	return res
}

// publish sends rec to every publisher. A failure is logged and counted but
// does not change the target's status; the row is already stored.
func (c *Collector) publish(ctx context.Context, logger *slog.Logger, rec domain.Record) {
	for _, p := range c.publishers {
		if err := p.Publish(ctx, rec); err != nil {
			logger.Warn("publish failed", "publisher", p.Name(), "error", err)
			c.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
		}
	}
}

func concurrencyLimit(maxConcurrency, targets int) int {
	if maxConcurrency > 0 && maxConcurrency < targets {
		return maxConcurrency
	}
	if targets == 0 {
		return 1
	}
	return targets
}
