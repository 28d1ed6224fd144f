package position

import (
	"context"
	"fmt"
	"time"
)

// Sample is one raw position fix delivered by a Source.
type Sample struct {
	Lat          float64
	Lng          float64
	Accuracy     float64 // meters
	Altitude     float64 // meters
	Heading      float64 // degrees; negative when the device reported none
	Speed        float64 // m/s
	BatteryLevel float64
	Timestamp    time.Time
}

// Terminal error kinds a source can report. A source may keep streaming
// after a transient error; these kinds mark the failure class, not the
// stream state.
type ErrorKind string

const (
	ErrPermissionDenied ErrorKind = "permission_denied"
	ErrUnavailable      ErrorKind = "unavailable"
	ErrTimeout          ErrorKind = "timeout"
)

// SourceError is the error type delivered on the error callback.
type SourceError struct {
	Kind    ErrorKind
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("position source %s: %s", e.Kind, e.Message)
}

// SampleFunc receives samples; ErrorFunc receives source errors.
// Neither callback may be invoked after Unsubscribe returns.
type (
	SampleFunc func(Sample)
	ErrorFunc  func(error)
)

// Source is the platform capability boundary for position streams.
// Implementations must not panic across the callback boundary; errors
// are reported through the error callback instead.
type Source interface {
	Subscribe(ctx context.Context, onSample SampleFunc, onError ErrorFunc) (Subscription, error)
}

// Subscription is a handle to an active stream.
type Subscription interface {
	Unsubscribe()
}
