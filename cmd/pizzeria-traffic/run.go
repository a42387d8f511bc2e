package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/pizzeria-traffic/internal/adapter/browser"
	httpadapter "github.com/couchcryptid/pizzeria-traffic/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/pizzeria-traffic/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/pizzeria-traffic/internal/adapter/mqtt"
	redisadapter "github.com/couchcryptid/pizzeria-traffic/internal/adapter/redis"
	"github.com/couchcryptid/pizzeria-traffic/internal/adapter/static"
	"github.com/couchcryptid/pizzeria-traffic/internal/adapter/store"
	"github.com/couchcryptid/pizzeria-traffic/internal/config"
	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/couchcryptid/pizzeria-traffic/internal/observability"
	"github.com/couchcryptid/pizzeria-traffic/internal/pipeline"
	"github.com/couchcryptid/pizzeria-traffic/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one collection cycle and exit.",
		Long: "Run one collection cycle: skip it when the local hour is inside the quiet window, " +
			"otherwise fetch every pizzeria concurrently and append one row each. " +
			"Per-pizzeria failures are logged and do not change the exit status.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			// Logs own stdout; the summary table goes to stderr.
			out := cmd.ErrOrStderr()
			if quiet {
				out = io.Discard
			}
			return run(cmd.Context(), cfg, logger, out, observability.NewMetrics(), prometheus.DefaultGatherer)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the cycle summary table.")
	return cmd
}

// run executes one cycle with cfg. Metrics are recorded in metrics and served
// or pushed from g. Outside the active window it returns before opening the
// store, the publishers, or a browser.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, metrics *observability.Metrics, g prometheus.Gatherer) error {
	registry, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}

	now := domain.Now()
	if capture := domain.NewCapture(now, cfg.Location); !cfg.Window.Active(capture.Hour) {
		metrics.Cycles.WithLabelValues("gated").Inc()
		logger.Debug("outside collection window", "hour", capture.Hour,
			"window_start", cfg.Window.Start, "window_end", cfg.Window.End)
		if err := report.Print(out, pipeline.Report{Capture: capture, Gated: true}); err != nil {
			logger.Warn("print cycle summary failed", "error", err)
		}
		return nil
	}

	// Connection problems surface per target as store_failed, not here.
	st, err := store.New(store.Backend(cfg.DBBackend), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()
	if err := st.EnsureSchema(ctx); err != nil {
		logger.Warn("ensure schema failed", "error", err)
	}

	publishers, closePublishers, err := openPublishers(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublishers()

	opener, err := newOpener(cfg, logger)
	if err != nil {
		return err
	}

	collector := pipeline.New(opener, st, publishers, pipeline.Settings{
		Window:         cfg.Window,
		Location:       cfg.Location,
		MaxConcurrency: cfg.MaxConcurrency,
		CycleTimeout:   cfg.CycleTimeout,
		FetchMode:      cfg.FetchMode,
	}, logger, metrics)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, collector, g, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	rep, err := collector.RunCycle(ctx, registry, now)
	if err != nil {
		return err
	}

	if err := report.Print(out, rep); err != nil {
		logger.Warn("print cycle summary failed", "error", err)
	}

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := observability.Push(pushCtx, cfg.PushgatewayURL, g); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}
	return nil
}

// newOpener picks how target pages are fetched.
func newOpener(cfg *config.Config, logger *slog.Logger) (pipeline.SessionOpener, error) {
	switch cfg.FetchMode {
	case config.FetchModeStatic:
		client, err := static.NewClient(static.Options{
			UserAgent:    cfg.BrowserUserAgent,
			ExtraHeaders: cfg.ExtraHeaders(),
			Timeout:      cfg.NavigationTimeout,
			Selector:     cfg.TrafficSelector,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		launch := domain.LaunchOptions{
			Headless:     cfg.BrowserHeadless,
			Locale:       cfg.BrowserLocale,
			UserAgent:    cfg.BrowserUserAgent,
			ExtraHeaders: cfg.ExtraHeaders(),
			Bin:          cfg.BrowserBin,
		}
		fetch := pipeline.FetchOptions{
			NavigationTimeout: cfg.NavigationTimeout,
			SettleDelay:       cfg.SettleDelay,
			ConsentTimeout:    cfg.ConsentTimeout,
			ConsentSelector:   cfg.ConsentSelector,
			TrafficSelector:   cfg.TrafficSelector,
		}
		return pipeline.NewBrowserOpener(browser.NewLauncher(logger), launch, fetch, logger), nil
	}
}

type closablePublisher interface {
	pipeline.Publisher
	Close() error
}

// openPublishers connects every configured downstream. A malformed URL is a
// configuration error; an unreachable server only disables that publisher.
// The returned func closes whatever was opened.
func openPublishers(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Publisher, func(), error) {
	var opened []closablePublisher
	closeAll := func() {
		for _, p := range opened {
			if err := p.Close(); err != nil {
				logger.Error("publisher close error", "publisher", p.Name(), "error", err)
			}
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		opened = append(opened, kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger))
	}
	if cfg.RedisURL != "" {
		p, err := redisadapter.NewPublisher(ctx, cfg.RedisURL, cfg.RedisChannel, logger)
		switch {
		case errors.Is(err, domain.ErrConfig):
			closeAll()
			return nil, nil, err
		case err != nil:
			logger.Warn("redis publisher disabled", "error", err)
		default:
			opened = append(opened, p)
		}
	}
	if cfg.MQTTURL != "" {
		p, err := mqttadapter.NewPublisher(ctx, cfg.MQTTURL, cfg.MQTTTopic, logger)
		if err != nil {
			logger.Warn("mqtt publisher disabled", "error", err)
		} else {
			opened = append(opened, p)
		}
	}

	publishers := make([]pipeline.Publisher, 0, len(opened))
	for _, p := range opened {
		logger.Info("publisher enabled", "publisher", p.Name())
		publishers = append(publishers, p)
	}
	return publishers, closeAll, nil
}
