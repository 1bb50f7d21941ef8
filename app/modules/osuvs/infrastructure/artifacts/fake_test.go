package artifacts

import (
	"context"
	"sync"
)

// ------------------------
// Fake Mirror
// ------------------------

type FakeMirror struct {
	mu    sync.Mutex
	trace []string

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	PutFunc func(ctx context.Context, key string, data []byte) error
}

func NewFakeMirror() *FakeMirror {
	return &FakeMirror{trace: []string{}}
}

func (f *FakeMirror) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeMirror) Get(ctx context.Context, key string) ([]byte, error) {
	f.record("Get:" + key)
	if f.GetFunc != nil {
		return f.GetFunc(ctx, key)
	}
	return nil, ErrMirrorMiss
}

func (f *FakeMirror) Put(ctx context.Context, key string, data []byte) error {
	f.record("Put:" + key)
	if f.PutFunc != nil {
		return f.PutFunc(ctx, key, data)
	}
	return nil
}

func (f *FakeMirror) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ Mirror = (*FakeMirror)(nil)
