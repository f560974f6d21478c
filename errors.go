package stmregion

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by NewRoot for unusable page geometry or
	// pool limits.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrAllocTooLarge is returned when an allocation does not fit in a
	// single page payload.
	ErrAllocTooLarge = errors.New("allocation exceeds page payload")
	// ErrClosed is returned when allocating from a closed root.
	ErrClosed = errors.New("root is closed")
	// ErrNilRegion is returned when a nil region is handed to a root.
	ErrNilRegion = errors.New("region is nil")
	// ErrQueueFull is returned when the expired-descriptor queue rejects an
	// entry even after draining.
	ErrQueueFull = errors.New("expired-descriptor queue is full")
	// ErrInvariant is matched by every InvariantError.
	ErrInvariant = errors.New("region invariant violated")
)

// InvariantError reports broken region, chain, or pool state. Such state
// means memory corruption; the package panics with an InvariantError
// instead of returning it.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type InvariantError struct {
	Op     string
	Region uint64 // 0 when no region is involved
	Detail string
	cause  error
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Detail)
	if e.Region != 0 {
		msg = fmt.Sprintf("%s region %d: %s", e.Op, e.Region, e.Detail)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *InvariantError) Unwrap() error { return e.cause }

// Is reports whether target is ErrInvariant.
func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func invariantf(op string, region uint64, cause error, format string, args ...any) *InvariantError {
	return &InvariantError{
		Op:     op,
		Region: region,
		Detail: fmt.Sprintf(format, args...),
		cause:  cause,
	}
}
