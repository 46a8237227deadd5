package order

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrEmptyAddress       = errors.New("location address is empty")
)

// Location is a resolved delivery point.
type Location struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Address  string   `json:"address"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// ValidCoordinates reports whether lat/lng fall in WGS84 ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Validate checks coordinate ranges and that an address has been resolved.
func (l Location) Validate() error {
	if !ValidCoordinates(l.Lat, l.Lng) {
		return ErrInvalidCoordinates
	}
	if strings.TrimSpace(l.Address) == "" {
		return ErrEmptyAddress
	}

	return nil
}
