package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Fetch modes.
const (
	FetchModeBrowser = "browser"
	FetchModeStatic  = "static"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Config holds all collector settings, populated from environment variables.
type Config struct {
	TargetsFile string
	Location    *time.Location
	Window      domain.Window

	FetchMode         string
	BrowserHeadless   bool
	BrowserLocale     string
	BrowserUserAgent  string
	BrowserBin        string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	ConsentTimeout    time.Duration
	ConsentSelector   string
	TrafficSelector   string

	MaxConcurrency int
	CycleTimeout   time.Duration

	DBBackend string
	DBDSN     string

	// Optional publishers. Empty brokers/URL disables the publisher.
	KafkaBrokers []string
	KafkaTopic   string
	RedisURL     string
	RedisChannel string
	MQTTURL      string
	MQTTTopic    string

	// Optional observability surfaces. Empty disables them.
	HTTPAddr       string
	PushgatewayURL string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	tzName := sharedcfg.EnvOrDefault("TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	windowStart, err := parseInt("WINDOW_START", 1)
	if err != nil {
		return nil, err
	}
	windowEnd, err := parseInt("WINDOW_END", 9)
	if err != nil {
		return nil, err
	}
	window := domain.Window{Start: windowStart, End: windowEnd}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WINDOW_START/WINDOW_END: %w", err)
	}

	headless, err := parseBool("BROWSER_HEADLESS", true)
	if err != nil {
		return nil, err
	}

	navTimeout, err := parsePositiveDuration("NAVIGATION_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	settle, err := parseNonNegativeDuration("SETTLE_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	consentTimeout, err := parsePositiveDuration("CONSENT_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}
	cycleTimeout, err := parsePositiveDuration("CYCLE_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}

	maxConcurrency, err := parseInt("MAX_CONCURRENCY", 0)
	if err != nil {
		return nil, err
	}
	if maxConcurrency < 0 {
		return nil, errors.New("invalid MAX_CONCURRENCY: must be >= 0")
	}

	cfg := &Config{
		TargetsFile: sharedcfg.EnvOrDefault("TARGETS_FILE", "targets.yaml"),
		Location:    loc,
		Window:      window,

		FetchMode:         strings.ToLower(sharedcfg.EnvOrDefault("FETCH_MODE", FetchModeBrowser)),
		BrowserHeadless:   headless,
		BrowserLocale:     sharedcfg.EnvOrDefault("BROWSER_LOCALE", "fr-FR"),
		BrowserUserAgent:  sharedcfg.EnvOrDefault("BROWSER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"),
		BrowserBin:        os.Getenv("BROWSER_BIN"),
		NavigationTimeout: navTimeout,
		SettleDelay:       settle,
		ConsentTimeout:    consentTimeout,
		ConsentSelector:   sharedcfg.EnvOrDefault("CONSENT_SELECTOR", `input[value="Tout refuser"]`),
		TrafficSelector:   sharedcfg.EnvOrDefault("TRAFFIC_SELECTOR", "div.dpoVLd"),

		MaxConcurrency: maxConcurrency,
		CycleTimeout:   cycleTimeout,

		DBBackend: strings.ToLower(sharedcfg.EnvOrDefault("DB_BACKEND", BackendSQLite)),
		DBDSN:     sharedcfg.EnvOrDefault("DB_DSN", "data/traffic_logs.db"),

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "traffic-observations"),
		RedisURL:     os.Getenv("REDIS_URL"),
		RedisChannel: sharedcfg.EnvOrDefault("REDIS_CHANNEL", "pizzeria-traffic:live"),
		MQTTURL:      os.Getenv("MQTT_URL"),
		MQTTTopic:    sharedcfg.EnvOrDefault("MQTT_TOPIC", "pizzeria-traffic/observations"),

		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.FetchMode {
	case FetchModeBrowser, FetchModeStatic:
	default:
		return nil, fmt.Errorf("invalid FETCH_MODE %q: must be browser or static", cfg.FetchMode)
	}
	switch cfg.DBBackend {
	case BackendSQLite, BackendPostgres, BackendMySQL:
	default:
		return nil, fmt.Errorf("invalid DB_BACKEND %q: must be sqlite, postgres or mysql", cfg.DBBackend)
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is required")
	}
	if cfg.ConsentSelector == "" || cfg.TrafficSelector == "" {
		return nil, errors.New("CONSENT_SELECTOR and TRAFFIC_SELECTOR must not be empty")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// ExtraHeaders returns the request headers sent with every page load.
func (c *Config) ExtraHeaders() map[string]string {
	return map[string]string{"Accept-Language": acceptLanguage(c.BrowserLocale)}
}

// acceptLanguage expands "fr-FR" into "fr-FR,fr".
func acceptLanguage(locale string) string {
	base, _, found := strings.Cut(locale, "-")
	if !found || base == "" {
		return locale
	}
	return locale + "," + base
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", key)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseNonNegativeDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative duration", key)
	}
	return d, nil
}
