// Package config manages application configuration.
//
// Configuration is an explicit struct constructed once at process start
// and passed into every component; nothing reads the environment after
// Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"livesched/classify"
)

// DefaultChannelSheetURL is the published roster sheet used when
// CHANNEL_SHEET_CSV is not set.
const DefaultChannelSheetURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vR5DMZYPLgP64WZYcE1H0PMOQyjD2Rf67NUM1kRkC3dCPVwZJ0kNcj6dUbugO-LOaSNSx798fPA27tK/pub?gid=0&single=true&output=csv"

// Config holds all settings for a schedule run.
type Config struct {
	// ChannelSheetURL is the published CSV with the channel roster.
	ChannelSheetURL string
	// ScheduleSheetURL, when set and non-empty, is a pre-built schedule
	// used verbatim instead of running collection and classification.
	ScheduleSheetURL string
	// OutPath is where the JSON schedule is written.
	OutPath string
	// APIKey is the YouTube Data API key. Empty degrades to feed and
	// watch-page collection.
	APIKey string

	// ScanSize bounds how many recent uploads are inspected per channel.
	ScanSize int
	// Lookback is the age cutoff for listed uploads.
	Lookback time.Duration
	// Grace is the ghost-upcoming grace period.
	Grace time.Duration
	// MaxLive is the maximum believable live duration.
	MaxLive time.Duration
	// Horizon is the farthest-future scheduled start still emitted.
	Horizon time.Duration
	// EndedRecency is the recap window for ended broadcasts.
	EndedRecency time.Duration

	// Delay is the pause between consecutive network calls.
	Delay time.Duration
	// Timeout applies to individual HTTP requests.
	Timeout time.Duration
	// LiveSearch enables the search.list live query (100 quota units
	// per channel, so off by default).
	LiveSearch bool
	// TimeZone is the IANA zone used for display timestamps.
	TimeZone string
}

// DefaultConfig returns configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		ChannelSheetURL: DefaultChannelSheetURL,
		OutPath:         "schedule.json",
		ScanSize:        25,
		Lookback:        30 * 24 * time.Hour,
		Grace:           30 * time.Minute,
		MaxLive:         4 * time.Hour,
		Horizon:         7 * 24 * time.Hour,
		EndedRecency:    36 * time.Hour,
		Delay:           150 * time.Millisecond,
		Timeout:         45 * time.Second,
		LiveSearch:      false,
		TimeZone:        "America/New_York",
	}
}

// Load builds configuration from defaults, an optional local .env file,
// and environment variable overrides, then validates it.
func Load() (*Config, error) {
	// Best effort; CI and production set real environment variables.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	c.ChannelSheetURL = getEnv("CHANNEL_SHEET_CSV", c.ChannelSheetURL)
	c.ScheduleSheetURL = getEnv("SCHEDULE_SHEET_CSV", c.ScheduleSheetURL)
	c.OutPath = getEnv("OUT_PATH", c.OutPath)
	c.APIKey = strings.TrimSpace(getEnv("YT_API_KEY", c.APIKey))

	c.ScanSize = getEnvInt("LIVESCHED_SCAN_SIZE", c.ScanSize)
	c.Lookback = getEnvDuration("LIVESCHED_LOOKBACK", c.Lookback)
	c.Grace = getEnvDuration("LIVESCHED_GRACE", c.Grace)
	c.MaxLive = getEnvDuration("LIVESCHED_MAX_LIVE", c.MaxLive)
	c.Horizon = getEnvDuration("LIVESCHED_HORIZON", c.Horizon)
	c.EndedRecency = getEnvDuration("LIVESCHED_ENDED_RECENCY", c.EndedRecency)
	c.Delay = getEnvDuration("LIVESCHED_DELAY", c.Delay)
	c.Timeout = getEnvDuration("LIVESCHED_TIMEOUT", c.Timeout)
	c.LiveSearch = getEnvBool("LIVESCHED_LIVE_SEARCH", c.LiveSearch)
	c.TimeZone = getEnv("LIVESCHED_TZ", c.TimeZone)
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.ChannelSheetURL == "" && c.ScheduleSheetURL == "" {
		return fmt.Errorf("channel sheet URL must be set")
	}
	if c.OutPath == "" {
		return fmt.Errorf("output path must be set")
	}
	if c.ScanSize <= 0 || c.ScanSize > 50 {
		return fmt.Errorf("scan size must be in 1..50 (one API page)")
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive")
	}
	if c.Grace < 0 {
		return fmt.Errorf("grace must be non-negative")
	}
	if c.MaxLive <= 0 {
		return fmt.Errorf("max live duration must be positive")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	if c.EndedRecency < 0 {
		return fmt.Errorf("ended recency must be non-negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	return nil
}

// Policy returns the classifier policy derived from the tuning knobs.
func (c *Config) Policy() classify.Policy {
	return classify.Policy{
		Grace:        c.Grace,
		MaxLiveAge:   c.MaxLive,
		Horizon:      c.Horizon,
		EndedRecency: c.EndedRecency,
	}
}

// Location resolves the display timezone. Validate has already checked
// the zone, so errors only occur on configs built by hand.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
