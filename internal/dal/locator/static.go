package locator

import (
	"context"
	"errors"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/geo"
)

var errNoFix = errors.New("no position configured")

// Static reports a configured fix, the way a device without a GPS reports a saved location.
// A zero value reports PositionUnavailable.
type Static struct {
	Lat      float64
	Lng      float64
	Accuracy float64
	// Err, when set, is returned by every call.
	Err error
	// WatchInterval is the period of watch updates. Zero means one second.
	WatchInterval time.Duration

	configured bool
}

// NewStatic creates a locator reporting the given coordinates and accuracy radius.
func NewStatic(lat, lng, accuracy float64) *Static {
	return &Static{Lat: lat, Lng: lng, Accuracy: accuracy, configured: true}
}

func (s *Static) position() (geo.Position, error) {
	if s.Err != nil {
		return geo.Position{}, s.Err
	}
	if !s.configured {
		return geo.Position{}, geo.NewError(geo.PositionUnavailable, errNoFix)
	}

	return geo.Position{
		Lat:       s.Lat,
		Lng:       s.Lng,
		Accuracy:  s.Accuracy,
		Timestamp: time.Now(),
	}, nil
}

func (s *Static) CurrentPosition(ctx context.Context, _ geo.PositionOptions) (geo.Position, error) {
	if err := ctx.Err(); err != nil {
		return geo.Position{}, err
	}

	return s.position()
}

func (s *Static) WatchPosition(ctx context.Context, _ geo.PositionOptions) (<-chan geo.PositionUpdate, error) {
	interval := s.WatchInterval
	if interval <= 0 {
		interval = time.Second
	}

	updates := make(chan geo.PositionUpdate)
	go func() {
		defer close(updates)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			pos, err := s.position()
			select {
			case <-ctx.Done():
				return
			case updates <- geo.PositionUpdate{Position: pos, Err: err}:
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return updates, nil
}
