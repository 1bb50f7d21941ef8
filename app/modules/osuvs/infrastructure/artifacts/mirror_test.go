package artifacts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket serves path-style S3 object requests from memory.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]bool
	puts    []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if !b.objects[r.URL.Path] {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = io.WriteString(w, beatmapBody)
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		b.puts = append(b.puts, r.URL.Path)
		b.objects[r.URL.Path] = true
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestBucketMirror(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]bool{"/maps/artifacts/7.osu": true}}
	srv := httptest.NewServer(bucket)
	defer srv.Close()

	ctx := context.Background()
	mirror, err := NewBucketMirror(ctx, BucketMirrorConfig{
		Endpoint:        srv.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "maps",
		Prefix:          "artifacts/",
	})
	require.NoError(t, err)

	data, err := mirror.Get(ctx, "7.osu")
	require.NoError(t, err)
	assert.Equal(t, beatmapBody, string(data))

	_, err = mirror.Get(ctx, "8.osu")
	assert.ErrorIs(t, err, ErrMirrorMiss)

	require.NoError(t, mirror.Put(ctx, "8.osu", []byte(beatmapBody)))
	assert.Equal(t, []string{"/maps/artifacts/8.osu"}, bucket.puts)
}

func TestNewBucketMirror_RequiresConfig(t *testing.T) {
	_, err := NewBucketMirror(context.Background(), BucketMirrorConfig{Bucket: "maps"})
	assert.Error(t, err)
}
