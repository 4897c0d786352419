package providers

import (
	"context"
	"errors"
	"time"
)

// Errors a PositionSource returns for the failures callers act on.
var (
	ErrPermissionDenied    = errors.New("position permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
)

// PositionOptions mirrors the knobs of a device location request.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Position is a device fix.
type Position struct {
	Lat       float64
	Lng       float64
	Accuracy  float64
	Timestamp time.Time
}

// PositionSource is the platform's current location capability.
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (*Position, error)
}
