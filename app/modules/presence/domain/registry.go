package presencedomain

import (
	"sort"
	"strings"
	"sync"
)

// Registry tracks which handles are currently online. Handles are compared
// case-insensitively. A registry built without targets tracks every handle
// until the first Track call.
type Registry struct {
	mu       sync.RWMutex
	trackAll bool
	targets  map[string]struct{}
	online   map[string]struct{}
}

// NewRegistry creates a registry limited to the given targets.
func NewRegistry(targets []string) *Registry {
	r := &Registry{
		targets: make(map[string]struct{}, len(targets)),
		online:  make(map[string]struct{}),
	}
	for _, t := range targets {
		if h := Normalize(t); h != "" {
			r.targets[h] = struct{}{}
		}
	}
	r.trackAll = len(r.targets) == 0
	return r
}

// Normalize lower-cases and trims a handle.
func Normalize(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func (r *Registry) tracked(handle string) bool {
	if r.trackAll {
		return true
	}
	_, ok := r.targets[handle]
	return ok
}

// MarkOnline records a join. It reports whether the event was applied.
func (r *Registry) MarkOnline(handle string) bool {
	h := Normalize(handle)
	if h == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tracked(h) {
		return false
	}
	r.online[h] = struct{}{}
	return true
}

// MarkOffline records a quit. Unknown handles are a no-op.
func (r *Registry) MarkOffline(handle string) bool {
	h := Normalize(handle)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.online[h]; !ok {
		return false
	}
	delete(r.online, h)
	return true
}

// Snapshot returns the online handles in sorted order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	handles := make([]string, 0, len(r.online))
	for h := range r.online {
		handles = append(handles, h)
	}
	r.mu.RUnlock()
	sort.Strings(handles)
	return handles
}

// Track adds a handle to the target set. The first Track on a registry that
// tracks everyone switches it to the target set and drops every other online
// handle. It reports whether the target set changed.
func (r *Registry) Track(handle string) bool {
	h := Normalize(handle)
	if h == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trackAll {
		r.trackAll = false
		for online := range r.online {
			if online != h {
				delete(r.online, online)
			}
		}
	} else if _, ok := r.targets[h]; ok {
		return false
	}
	r.targets[h] = struct{}{}
	return true
}

// Untrack removes a handle from the target set and forgets its online state.
// A registry whose last target is removed tracks nobody. It reports whether
// the target set changed.
func (r *Registry) Untrack(handle string) bool {
	h := Normalize(handle)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[h]; !ok {
		return false
	}
	delete(r.targets, h)
	delete(r.online, h)
	return true
}

// Targets returns the tracked handles in sorted order. It is empty while the
// registry tracks everyone.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	targets := make([]string, 0, len(r.targets))
	for h := range r.targets {
		targets = append(targets, h)
	}
	r.mu.RUnlock()
	sort.Strings(targets)
	return targets
}
