package presencehandlers

// ------------------------
// Fake Tracker
// ------------------------

type FakeTracker struct {
	trace []string

	MarkOnlineFunc  func(handle string) bool
	MarkOfflineFunc func(handle string) bool
	TrackFunc       func(handle string) bool
	UntrackFunc     func(handle string) bool
}

func NewFakeTracker() *FakeTracker {
	return &FakeTracker{trace: []string{}}
}

func (f *FakeTracker) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeTracker) MarkOnline(handle string) bool {
	f.record("MarkOnline:" + handle)
	if f.MarkOnlineFunc != nil {
		return f.MarkOnlineFunc(handle)
	}
	return true
}

func (f *FakeTracker) MarkOffline(handle string) bool {
	f.record("MarkOffline:" + handle)
	if f.MarkOfflineFunc != nil {
		return f.MarkOfflineFunc(handle)
	}
	return true
}

func (f *FakeTracker) Track(handle string) bool {
	f.record("Track:" + handle)
	if f.TrackFunc != nil {
		return f.TrackFunc(handle)
	}
	return true
}

func (f *FakeTracker) Untrack(handle string) bool {
	f.record("Untrack:" + handle)
	if f.UntrackFunc != nil {
		return f.UntrackFunc(handle)
	}
	return true
}

func (f *FakeTracker) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ Tracker = (*FakeTracker)(nil)
