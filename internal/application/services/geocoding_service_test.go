package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

func TestGeocodingService_ForwardGeocode_FirstMatch(t *testing.T) {
	geocoder := new(mockGeocoder)
	geocoder.On("Search", mock.Anything, "Portland, OR", "us").Return([]providers.GeocodeMatch{
		{Lat: 45.52, Lng: -122.68, DisplayName: "Portland, Multnomah County, Oregon"},
		{Lat: 43.66, Lng: -70.26, DisplayName: "Portland, Maine"},
	}, nil)

	svc := services.NewGeocodingService(geocoder)
	res := svc.ForwardGeocode(context.Background(), "  Portland, OR ")

	require.True(t, res.IsFound())
	loc, _ := res.Get()
	assert.InDelta(t, 45.52, loc.Lat, 1e-9)
	assert.InDelta(t, -122.68, loc.Lng, 1e-9)
	assert.Equal(t, "Portland, Multnomah County, Oregon", loc.Label)
}

func TestGeocodingService_ForwardGeocode_Outcomes(t *testing.T) {
	t.Run("empty text is not found without a provider call", func(t *testing.T) {
		geocoder := new(mockGeocoder)
		res := services.NewGeocodingService(geocoder).ForwardGeocode(context.Background(), "   ")
		assert.True(t, res.IsNotFound())
		geocoder.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no matches is not found", func(t *testing.T) {
		geocoder := new(mockGeocoder)
		geocoder.On("Search", mock.Anything, "Atlantis", "us").Return(nil, nil)
		res := services.NewGeocodingService(geocoder).ForwardGeocode(context.Background(), "Atlantis")
		assert.True(t, res.IsNotFound())
	})

	t.Run("provider error is failed", func(t *testing.T) {
		geocoder := new(mockGeocoder)
		boom := errors.New("connection refused")
		geocoder.On("Search", mock.Anything, "Boise", "us").Return(nil, boom)
		res := services.NewGeocodingService(geocoder).ForwardGeocode(context.Background(), "Boise")
		assert.True(t, res.IsFailed())
		assert.ErrorIs(t, res.Err, boom)
	})
}

func TestGeocodingService_ForwardGeocode_CachesOnlyFound(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	geocoder := new(mockGeocoder)
	geocoder.On("Search", mock.Anything, "Austin", "us").Return([]providers.GeocodeMatch{
		{Lat: 30.27, Lng: -97.74, DisplayName: "Austin, Texas"},
	}, nil).Once()
	geocoder.On("Search", mock.Anything, "Nowhere", "us").Return(nil, nil).Twice()

	svc := services.NewGeocodingService(geocoder, services.WithGeocodeCache(cache, time.Hour))

	first := svc.ForwardGeocode(ctx, "Austin")
	second := svc.ForwardGeocode(ctx, "austin")
	require.True(t, first.IsFound())
	require.True(t, second.IsFound())
	assert.Equal(t, first.Value, second.Value)

	assert.True(t, svc.ForwardGeocode(ctx, "Nowhere").IsNotFound())
	assert.True(t, svc.ForwardGeocode(ctx, "Nowhere").IsNotFound())

	assert.Equal(t, 1, cache.Len())
	geocoder.AssertExpectations(t)
}

func TestGeocodingService_ReverseGeocode(t *testing.T) {
	tests := []struct {
		name   string
		addr   *providers.ReverseAddress
		err    error
		want   string
		found  bool
		failed bool
	}{
		{name: "city and state", addr: &providers.ReverseAddress{City: "Seattle", State: "Washington"}, want: "Seattle, Washington", found: true},
		{name: "town fallback", addr: &providers.ReverseAddress{Town: "Sisters", State: "Oregon"}, want: "Sisters, Oregon", found: true},
		{name: "missing state", addr: &providers.ReverseAddress{City: "Seattle"}},
		{name: "no address", addr: nil},
		{name: "provider error", err: errors.New("timeout"), failed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := new(mockGeocoder)
			geocoder.On("Reverse", mock.Anything, 47.6, -122.3).Return(tt.addr, tt.err)

			res := services.NewGeocodingService(geocoder).ReverseGeocode(context.Background(), 47.6, -122.3)

			assert.Equal(t, tt.found, res.IsFound())
			assert.Equal(t, tt.failed, res.IsFailed())
			if tt.found {
				assert.Equal(t, tt.want, res.Value)
			}
		})
	}
}

func TestGeocodingService_CurrentPosition(t *testing.T) {
	t.Run("no source is unsupported", func(t *testing.T) {
		_, err := services.NewGeocodingService(new(mockGeocoder)).CurrentPosition(context.Background())
		var posErr *services.PositionError
		require.ErrorAs(t, err, &posErr)
		assert.Equal(t, services.PositionUnsupported, posErr.Kind)
	})

	t.Run("failures are classified", func(t *testing.T) {
		cases := map[services.PositionErrorKind]error{
			services.PositionPermissionDenied: providers.ErrPermissionDenied,
			services.PositionUnavailable:      providers.ErrPositionUnavailable,
			services.PositionTimedOut:         context.DeadlineExceeded,
		}
		messages := map[string]bool{}
		for kind, cause := range cases {
			src := new(mockPosition)
			src.On("CurrentPosition", mock.Anything, mock.Anything).Return(nil, cause)

			_, err := services.NewGeocodingService(new(mockGeocoder), services.WithPositionSource(src)).
				CurrentPosition(context.Background())

			var posErr *services.PositionError
			require.ErrorAs(t, err, &posErr)
			assert.Equal(t, kind, posErr.Kind)
			assert.ErrorIs(t, err, cause)
			messages[posErr.Message()] = true
		}
		assert.Len(t, messages, 3)
	})

	t.Run("fix is reused within max age", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		src := new(mockPosition)
		src.On("CurrentPosition", mock.Anything, mock.MatchedBy(func(o providers.PositionOptions) bool {
			return o.HighAccuracy && o.Timeout == services.PositionTimeout && o.MaximumAge == services.PositionMaxAge
		})).Return(&providers.Position{Lat: 37.77, Lng: -122.42}, nil).Twice()

		svc := services.NewGeocodingService(new(mockGeocoder),
			services.WithPositionSource(src),
			services.WithGeocodingClock(func() time.Time { return now }),
		)

		first, err := svc.CurrentPosition(context.Background())
		require.NoError(t, err)
		now = now.Add(4 * time.Minute)
		_, err = svc.CurrentPosition(context.Background())
		require.NoError(t, err)
		src.AssertNumberOfCalls(t, "CurrentPosition", 1)

		now = now.Add(2 * time.Minute)
		_, err = svc.CurrentPosition(context.Background())
		require.NoError(t, err)
		src.AssertNumberOfCalls(t, "CurrentPosition", 2)
		assert.InDelta(t, 37.77, first.Lat, 1e-9)
	})
}
