package addresssvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/dal/nominatim"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Geocoder looks up address components for a coordinate pair.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*nominatim.ReverseResult, error)
}

// componentOrder is the preferred order of address parts; alternatives in one group are
// tried left to right and only the first present one is used.
var componentOrder = [][]string{
	{"house_number"},
	{"road"},
	{"neighbourhood"},
	{"suburb"},
	{"quarter"},
	{"city_district"},
	{"city", "town"},
	{"governorate", "state"},
	{"country"},
}

var landmarkKeys = []string{
	"landmark",
	"attraction",
	"building",
	"mall",
	"theatre",
	"hospital",
	"university",
	"school",
}

// AddressService turns coordinates into a delivery address.
type AddressService struct {
	geocoder Geocoder
}

type option func(*AddressService)

// MustNewAddressService creates a new AddressService.
func MustNewAddressService(opts ...option) *AddressService {
	s := &AddressService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.geocoder == nil {
		panic("addresssvc: geocoder is required")
	}

	return s
}

// WithGeocoder sets the reverse geocoder.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithGeocoder(g Geocoder) option {
	return func(s *AddressService) {
		s.geocoder = g
	}
}

// ResolveAddress never fails: lookup errors degrade to the formatted coordinates.
func (s *AddressService) ResolveAddress(ctx context.Context, lat, lng float64) string {
	ctx, span := otel.Tracer("storefront").Start(ctx, "addresssvc.ResolveAddress")
	defer span.End()
	span.SetAttributes(attribute.Float64("geo.lat", lat), attribute.Float64("geo.lng", lng))

	result, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		slog.Warn("Address lookup failed, using coordinates", "lat", lat, "lng", lng, "error", err)

		return CoordinatesFallback(lat, lng)
	}

	if address := FormatAddress(result); address != "" {
		return address
	}

	return CoordinatesFallback(lat, lng)
}

// FormatAddress composes the address from components, falling back to the display name.
func FormatAddress(result *nominatim.ReverseResult) string {
	if result == nil {
		return ""
	}

	parts := make([]string, 0, len(componentOrder))
	for _, group := range componentOrder {
		for _, key := range group {
			value := strings.TrimSpace(result.Address[key])
			if value == "" {
				continue
			}
			if key == "house_number" {
				value = "No. " + value
			}
			parts = append(parts, value)

			break
		}
	}

	address := strings.Join(parts, ", ")
	if address == "" {
		address = strings.TrimSpace(result.DisplayName)
	}
	if address == "" {
		return ""
	}

	for _, key := range landmarkKeys {
		if landmark := strings.TrimSpace(result.Address[key]); landmark != "" {
			address += " (near: " + landmark + ")"

			break
		}
	}

	return address
}

// CoordinatesFallback formats coordinates with six decimals.
func CoordinatesFallback(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
