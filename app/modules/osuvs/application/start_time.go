package osuvsservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// ParseStartTime reads an RFC 3339 timestamp or an English expression such as
// "tomorrow at 8pm", relative to now.
func ParseStartTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrInvalidStartTime)
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC(), nil
	}

	w := when.New(nil)
	w.Add(en.All...)

	r, err := w.Parse(strings.ToLower(input), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidStartTime, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStartTime, input)
	}
	return r.Time.UTC(), nil
}
