package geo

import (
	"time"
)

// Position is a device fix. Accuracy is the radius in meters; zero means unknown.
type Position struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionOptions mirrors the knobs of a platform location API.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// PositionUpdate is one delivery of a watch subscription: either a fix or an error.
type PositionUpdate struct {
	Position Position
	Err      error
}

var (
	QuickOptions = PositionOptions{
		HighAccuracy: false,
		Timeout:      5 * time.Second,
		MaximumAge:   60 * time.Second,
	}
	HighAccuracyOptions = PositionOptions{
		HighAccuracy: true,
		Timeout:      15 * time.Second,
		MaximumAge:   0,
	}
	RefinementOptions = PositionOptions{
		HighAccuracy: true,
		Timeout:      20 * time.Second,
		MaximumAge:   0,
	}
	StandardOptions = PositionOptions{
		HighAccuracy: false,
		Timeout:      20 * time.Second,
		MaximumAge:   30 * time.Second,
	}
	WatchOptions = PositionOptions{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   5 * time.Second,
	}
)
