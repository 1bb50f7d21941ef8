package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL serves raw .osu files at /osu/<id>.
	DefaultBaseURL = "https://osu.ppy.sh"

	// DefaultMaxSize bounds a single downloaded artifact.
	DefaultMaxSize = 16 << 20
)

var htmlPrefix = []byte("<html>")

var errArtifactTooLarge = errors.New("artifact exceeds size limit")

// Config configures the artifact cache.
type Config struct {
	Dir            string
	BaseURL        string
	RequestTimeout time.Duration
	Backoff        Backoff
	MaxSize        int64
}

// Cache returns local paths of beatmap files, downloading missing ones.
type Cache struct {
	cfg    Config
	client *http.Client
	mirror Mirror
	logger *slog.Logger
	sleep  SleepFunc
	group  singleflight.Group
}

// Option customises a Cache.
type Option func(*Cache)

// WithMirror consults m after a local miss and uploads fresh downloads to it.
func WithMirror(m Mirror) Option {
	return func(c *Cache) { c.mirror = m }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.client = client }
}

// WithSleep replaces the backoff sleep.
func WithSleep(fn SleepFunc) Option {
	return func(c *Cache) { c.sleep = fn }
}

// NewCache creates a Cache rooted at cfg.Dir.
func NewCache(cfg Config, logger *slog.Logger, opts ...Option) *Cache {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path is where the artifact for mapID lives once cached.
func (c *Cache) Path(mapID osuvsdomain.MapID) string {
	return filepath.Join(c.cfg.Dir, fileName(mapID))
}

func fileName(mapID osuvsdomain.MapID) string {
	return fmt.Sprintf("%d.osu", mapID)
}

// GetOrFetch returns the local path of the artifact, fetching it if needed.
// Concurrent calls for the same map share one download.
func (c *Cache) GetOrFetch(ctx context.Context, mapID osuvsdomain.MapID) (string, error) {
	path := c.Path(mapID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	_, err, _ := c.group.Do(mapID.String(), func() (any, error) {
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		return nil, c.populate(ctx, mapID, path)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *Cache) populate(ctx context.Context, mapID osuvsdomain.MapID, path string) error {
	if c.mirror != nil {
		data, err := c.mirror.Get(ctx, fileName(mapID))
		switch {
		case err == nil && valid(data) && int64(len(data)) <= c.cfg.MaxSize:
			c.logger.DebugContext(ctx, "Artifact restored from mirror", slog.Uint64("map_id", uint64(mapID)))
			return writeAtomic(path, data)
		case err != nil && !errors.Is(err, ErrMirrorMiss):
			c.logger.WarnContext(ctx, "Artifact mirror lookup failed",
				slog.Uint64("map_id", uint64(mapID)),
				slog.String("error", err.Error()),
			)
		}
	}

	data, err := c.download(ctx, mapID)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Artifact downloaded",
		slog.Uint64("map_id", uint64(mapID)),
		slog.Int("bytes", len(data)),
	)

	if c.mirror != nil {
		if err := c.mirror.Put(ctx, fileName(mapID), data); err != nil {
			c.logger.WarnContext(ctx, "Failed to push artifact to mirror",
				slog.Uint64("map_id", uint64(mapID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// download retries until a valid payload arrives or the attempt budget is spent.
func (c *Cache) download(ctx context.Context, mapID osuvsdomain.MapID) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		data, err := c.fetch(ctx, mapID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil && valid(data) {
			return data, nil
		}
		if err == nil {
			err = errors.New("invalid payload")
		}

		if attempt >= c.cfg.Backoff.MaxAttempts {
			return nil, &RetryLimitExceededError{MapID: mapID, Attempts: attempt + 1}
		}

		delay := c.cfg.Backoff.Delay(attempt + 1)
		c.logger.WarnContext(ctx, "Artifact download failed, retrying",
			slog.Uint64("map_id", uint64(mapID)),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Cache) fetch(ctx context.Context, mapID osuvsdomain.MapID) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/osu/%d", c.cfg.BaseURL, mapID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &unexpectedStatusError{status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.cfg.MaxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", errArtifactTooLarge, c.cfg.MaxSize)
	}
	return data, nil
}

// valid rejects short payloads and HTML error pages.
func valid(data []byte) bool {
	return len(data) >= len(htmlPrefix) && !bytes.Equal(data[:len(htmlPrefix)], htmlPrefix)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
