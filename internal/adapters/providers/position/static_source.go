package position

import (
	"context"
	"time"

	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

// StaticSource is a PositionSource that reports a fixed fix. The CLI uses
// it for --lat/--lng, where no device location exists.
type StaticSource struct {
	lat, lng float64
	err      error
	now      func() time.Time
}

// NewStaticSource returns a source that always reports lat/lng.
func NewStaticSource(lat, lng float64) *StaticSource {
	return &StaticSource{lat: lat, lng: lng, now: time.Now}
}

// NewFailingSource returns a source that always fails with err, for
// example providers.ErrPermissionDenied.
func NewFailingSource(err error) *StaticSource {
	return &StaticSource{err: err, now: time.Now}
}

// CurrentPosition implements providers.PositionSource.
func (s *StaticSource) CurrentPosition(ctx context.Context, _ providers.PositionOptions) (*providers.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &providers.Position{Lat: s.lat, Lng: s.lng, Timestamp: s.now()}, nil
}
