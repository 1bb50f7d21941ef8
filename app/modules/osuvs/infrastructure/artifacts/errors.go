package artifacts

import (
	"errors"
	"fmt"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

var (
	// ErrRetryLimitExceeded matches every RetryLimitExceededError.
	ErrRetryLimitExceeded = errors.New("artifact retry limit exceeded")
	// ErrMirrorMiss is returned by a Mirror that does not hold the requested key.
	ErrMirrorMiss = errors.New("artifact not in mirror")
)

// RetryLimitExceededError reports that no valid artifact could be downloaded.
type RetryLimitExceededError struct {
	MapID    osuvsdomain.MapID
	Attempts int
}

func (e *RetryLimitExceededError) Error() string {
	return fmt.Sprintf("reached retry limit after %d attempts and still failed to download map %d", e.Attempts, e.MapID)
}

func (e *RetryLimitExceededError) Is(target error) bool {
	return target == ErrRetryLimitExceeded
}

type unexpectedStatusError struct {
	status int
}

func (e *unexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}
