package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration of the tracker process.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	OsuAPI        OsuAPIConfig        `yaml:"osu_api"`
	Tracker       TrackerConfig       `yaml:"tracker"`
	Artifacts     ArtifactsConfig     `yaml:"artifacts"`
	Mirror        MirrorConfig        `yaml:"mirror"`
	Presence      PresenceConfig      `yaml:"presence"`
	Announcements AnnouncementsConfig `yaml:"announcements"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url" env:"NATS_URL"`
}

// OsuAPIConfig holds the osu! API v2 credentials and limits.
type OsuAPIConfig struct {
	BaseURL           string        `yaml:"base_url" env:"OSU_API_BASE_URL"`
	ClientID          string        `yaml:"client_id" env:"OSU_CLIENT_ID"`
	ClientSecret      string        `yaml:"client_secret" env:"OSU_CLIENT_SECRET"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"OSU_API_RPS"`
	Burst             int           `yaml:"burst" env:"OSU_API_BURST"`
	Timeout           time.Duration `yaml:"timeout" env:"OSU_API_TIMEOUT"`
}

// TrackerConfig tunes the tick loop.
type TrackerConfig struct {
	Interval            time.Duration `yaml:"interval" env:"TRACKER_INTERVAL"`
	ScoreLimit          int           `yaml:"score_limit" env:"TRACKER_SCORE_LIMIT"`
	Mode                string        `yaml:"mode" env:"TRACKER_MODE"`
	ExcludedMods        string        `yaml:"excluded_mods" env:"TRACKER_EXCLUDED_MODS"`
	PollTimeout         time.Duration `yaml:"poll_timeout" env:"TRACKER_POLL_TIMEOUT"`
	CompetitionDuration time.Duration `yaml:"competition_duration" env:"COMPETITION_DURATION"`
	LeaderboardSize     int           `yaml:"leaderboard_size" env:"LEADERBOARD_SIZE"`
}

// ArtifactsConfig configures the beatmap file cache.
type ArtifactsConfig struct {
	Dir            string        `yaml:"dir" env:"ARTIFACT_DIR"`
	BaseURL        string        `yaml:"base_url" env:"ARTIFACT_BASE_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"ARTIFACT_REQUEST_TIMEOUT"`
	Backoff        BackoffConfig `yaml:"backoff"`
}

// BackoffConfig is the artifact download retry schedule.
type BackoffConfig struct {
	Base        float64       `yaml:"base" env:"ARTIFACT_BACKOFF_BASE"`
	Factor      time.Duration `yaml:"factor" env:"ARTIFACT_BACKOFF_FACTOR"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"ARTIFACT_BACKOFF_MAX_DELAY"`
	MaxAttempts int           `yaml:"max_attempts" env:"ARTIFACT_BACKOFF_MAX_ATTEMPTS"`
}

// MirrorConfig configures the optional S3-compatible artifact mirror.
type MirrorConfig struct {
	Enabled         bool   `yaml:"enabled" env:"MIRROR_ENABLED"`
	Endpoint        string `yaml:"endpoint" env:"MIRROR_ENDPOINT"`
	Region          string `yaml:"region" env:"MIRROR_REGION"`
	Bucket          string `yaml:"bucket" env:"MIRROR_BUCKET"`
	Prefix          string `yaml:"prefix" env:"MIRROR_PREFIX"`
	AccessKeyID     string `yaml:"access_key_id" env:"MIRROR_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MIRROR_SECRET_ACCESS_KEY"`
}

// PresenceConfig lists the handles whose presence is tracked. Empty tracks everyone.
type PresenceConfig struct {
	Targets []string `yaml:"targets" env:"PRESENCE_TARGETS" envSeparator:","`
}

// Announcement delivery modes.
const (
	AnnouncePublish = "publish"
	AnnounceQueue   = "queue"
)

// AnnouncementsConfig selects how announcements reach the event bus: published
// directly, or through a durable River job.
type AnnouncementsConfig struct {
	Mode string `yaml:"mode" env:"ANNOUNCEMENT_MODE"`
}

// ObservabilityConfig holds configuration for observability components.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS"`
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string `yaml:"log_format" env:"LOG_FORMAT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		OsuAPI: OsuAPIConfig{
			BaseURL:           "https://osu.ppy.sh",
			RequestsPerSecond: 1,
			Burst:             5,
			Timeout:           10 * time.Second,
		},
		Tracker: TrackerConfig{
			Interval:            5 * time.Minute,
			ScoreLimit:          50,
			Mode:                string(osuvsdomain.ModeOsu),
			ExcludedMods:        osuvsdomain.DefaultExcludedMods.String(),
			PollTimeout:         30 * time.Second,
			CompetitionDuration: 7 * 24 * time.Hour,
			LeaderboardSize:     10,
		},
		Artifacts: ArtifactsConfig{
			Dir:            "data/maps",
			BaseURL:        "https://osu.ppy.sh",
			RequestTimeout: 10 * time.Second,
			Backoff: BackoffConfig{
				Base:        2,
				Factor:      500 * time.Millisecond,
				MaxDelay:    10 * time.Second,
				MaxAttempts: 10,
			},
		},
		Mirror: MirrorConfig{
			Region: "auto",
			Prefix: "maps/",
		},
		Announcements: AnnouncementsConfig{Mode: AnnouncePublish},
		Observability: ObservabilityConfig{
			MetricsAddress: ":9090",
			LogLevel:       "info",
			LogFormat:      "json",
		},
	}
}

// LoadConfig reads filename over the defaults, then applies environment
// overrides. A missing file is not an error.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the tracker cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn (DATABASE_URL) is required"))
	}
	if c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url (NATS_URL) is required"))
	}
	if c.Tracker.Interval <= 0 {
		errs = append(errs, errors.New("tracker.interval must be positive"))
	}
	if c.Tracker.ScoreLimit <= 0 || c.Tracker.ScoreLimit > 100 {
		errs = append(errs, errors.New("tracker.score_limit must be between 1 and 100"))
	}
	if c.Tracker.PollTimeout <= 0 {
		errs = append(errs, errors.New("tracker.poll_timeout must be positive"))
	}
	if c.Tracker.CompetitionDuration <= 0 {
		errs = append(errs, errors.New("tracker.competition_duration must be positive"))
	}
	if !osuvsdomain.GameMode(c.Tracker.Mode).Valid() {
		errs = append(errs, fmt.Errorf("tracker.mode %q is not a ruleset", c.Tracker.Mode))
	}
	if _, err := c.ExcludedMods(); err != nil {
		errs = append(errs, fmt.Errorf("tracker.excluded_mods: %w", err))
	}
	if c.Artifacts.Dir == "" {
		errs = append(errs, errors.New("artifacts.dir is required"))
	}
	b := c.Artifacts.Backoff
	if b.Base < 1 || b.Factor <= 0 || b.MaxDelay <= 0 || b.MaxAttempts < 0 {
		errs = append(errs, errors.New("artifacts.backoff needs base >= 1, positive factor and max_delay, and max_attempts >= 0"))
	}
	if c.Mirror.Enabled && (c.Mirror.Endpoint == "" || c.Mirror.Bucket == "") {
		errs = append(errs, errors.New("mirror.endpoint and mirror.bucket are required when the mirror is enabled"))
	}
	if c.Announcements.Mode != AnnouncePublish && c.Announcements.Mode != AnnounceQueue {
		errs = append(errs, fmt.Errorf("announcements.mode %q must be %q or %q", c.Announcements.Mode, AnnouncePublish, AnnounceQueue))
	}
	return errors.Join(errs...)
}

// ExcludedMods parses the excluded modifier acronyms, e.g. "V2" or "V2,RX".
func (c *Config) ExcludedMods() (osuvsdomain.Mods, error) {
	s := strings.TrimSpace(c.Tracker.ExcludedMods)
	if s == "" || strings.EqualFold(s, "NM") {
		return osuvsdomain.NoMod, nil
	}
	return osuvsdomain.ParseModString(strings.ReplaceAll(s, ",", ""))
}
