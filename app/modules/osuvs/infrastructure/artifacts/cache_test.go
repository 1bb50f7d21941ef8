package artifacts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const beatmapBody = "osu file format v14\n\n[General]\nMode: 0\n"

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequenceServer replies with responses in order, repeating the last one.
func sequenceServer(t *testing.T, responses ...func(w http.ResponseWriter)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/osu/42", r.URL.Path)
		i := int(calls.Add(1)) - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		responses[i](w)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { _, _ = io.WriteString(w, s) }
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func TestBackoffDelays(t *testing.T) {
	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		10 * time.Second, 10 * time.Second, 10 * time.Second,
		10 * time.Second, 10 * time.Second, 10 * time.Second,
	}
	assert.Equal(t, want, DefaultBackoff.Delays())
	assert.Equal(t, 10*time.Second, DefaultBackoff.Delay(2000), "huge exponents stay capped")
}

func TestGetOrFetch_LocalHitSkipsNetwork(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "42.osu"), []byte(beatmapBody), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	cache := NewCache(Config{Dir: dir, BaseURL: srv.URL}, discardLogger())
	path, err := cache.GetOrFetch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "42.osu"), path)
}

func TestGetOrFetch_RetriesInvalidPayloads(t *testing.T) {
	tests := []struct {
		name       string
		responses  []func(w http.ResponseWriter)
		wantCalls  int32
		wantDelays []time.Duration
	}{
		{
			name:       "first response valid",
			responses:  []func(w http.ResponseWriter){body(beatmapBody)},
			wantCalls:  1,
			wantDelays: nil,
		},
		{
			name:       "html error pages then valid",
			responses:  []func(w http.ResponseWriter){body("<html>busy</html>"), body("<html>"), body(beatmapBody)},
			wantCalls:  3,
			wantDelays: []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:       "short payload and non-2xx count as invalid",
			responses:  []func(w http.ResponseWriter){body("osu"), status(http.StatusNotFound), body(beatmapBody)},
			wantCalls:  3,
			wantDelays: []time.Duration{time.Second, 2 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := sequenceServer(t, tt.responses...)
			sleeps := &recordedSleeps{}
			dir := t.TempDir()

			cache := NewCache(Config{Dir: dir, BaseURL: srv.URL}, discardLogger(), WithSleep(sleeps.sleep))
			path, err := cache.GetOrFetch(context.Background(), 42)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, beatmapBody, string(data))
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.wantDelays, sleeps.delays)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temp files may be left behind")
		})
	}
}

func TestGetOrFetch_RetryLimitExceeded(t *testing.T) {
	srv, calls := sequenceServer(t, body("<html>maintenance</html>"))
	sleeps := &recordedSleeps{}
	dir := t.TempDir()

	cache := NewCache(Config{Dir: dir, BaseURL: srv.URL}, discardLogger(), WithSleep(sleeps.sleep))
	_, err := cache.GetOrFetch(context.Background(), 42)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryLimitExceeded)
	var limitErr *RetryLimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, osuvsdomain.MapID(42), limitErr.MapID)
	assert.Equal(t, int32(11), calls.Load())
	assert.Equal(t, DefaultBackoff.Delays(), sleeps.delays)

	_, statErr := os.Stat(filepath.Join(dir, "42.osu"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGetOrFetch_RejectsOversizedPayload(t *testing.T) {
	srv, calls := sequenceServer(t, body(beatmapBody+"[Metadata]\nTitle: padding past the limit\n"))
	sleeps := &recordedSleeps{}
	dir := t.TempDir()

	cache := NewCache(Config{
		Dir:     dir,
		BaseURL: srv.URL,
		MaxSize: int64(len(beatmapBody)),
		Backoff: Backoff{Base: 1, Factor: time.Second, MaxDelay: time.Second, MaxAttempts: 2},
	}, discardLogger(), WithSleep(sleeps.sleep))
	_, err := cache.GetOrFetch(context.Background(), 42)

	assert.ErrorIs(t, err, ErrRetryLimitExceeded)
	assert.Equal(t, int32(3), calls.Load(), "oversized payloads count as failed attempts")
	_, statErr := os.Stat(filepath.Join(dir, "42.osu"))
	assert.True(t, os.IsNotExist(statErr), "truncated payload must not be cached")
}

func TestGetOrFetch_AcceptsPayloadAtSizeLimit(t *testing.T) {
	srv, calls := sequenceServer(t, body(beatmapBody))
	dir := t.TempDir()

	cache := NewCache(Config{Dir: dir, BaseURL: srv.URL, MaxSize: int64(len(beatmapBody))}, discardLogger())
	path, err := cache.GetOrFetch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, beatmapBody, string(data))
}

func TestGetOrFetch_ContextCancelledDuringBackoff(t *testing.T) {
	srv, calls := sequenceServer(t, body("<html>"))
	ctx, cancel := context.WithCancel(context.Background())

	cache := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL}, discardLogger(),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}))

	_, err := cache.GetOrFetch(ctx, 42)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrFetch_Mirror(t *testing.T) {
	t.Run("mirror hit skips network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}))
		defer srv.Close()

		mirror := NewFakeMirror()
		mirror.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
			return []byte(beatmapBody), nil
		}

		cache := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL}, discardLogger(), WithMirror(mirror))
		path, err := cache.GetOrFetch(context.Background(), 42)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, beatmapBody, string(data))
		assert.Equal(t, []string{"Get:42.osu"}, mirror.Trace())
	})

	t.Run("download is pushed to mirror and push failure is ignored", func(t *testing.T) {
		srv, _ := sequenceServer(t, body(beatmapBody))
		mirror := NewFakeMirror()
		mirror.PutFunc = func(ctx context.Context, key string, data []byte) error {
			assert.Equal(t, beatmapBody, string(data))
			return errors.New("bucket unavailable")
		}

		cache := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL}, discardLogger(), WithMirror(mirror))
		_, err := cache.GetOrFetch(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, []string{"Get:42.osu", "Put:42.osu"}, mirror.Trace())
	})
}

func TestGetOrFetch_ConcurrentCallersShareDownload(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = io.WriteString(w, beatmapBody)
	}))
	defer srv.Close()

	cache := NewCache(Config{Dir: t.TempDir(), BaseURL: srv.URL}, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrFetch(context.Background(), 42)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
