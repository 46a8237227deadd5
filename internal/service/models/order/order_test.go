package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "01012345678", want: "+2001012345678"},
		{in: "1012345678", want: "+201012345678"},
		{in: "(010) 123-45678", want: "+2001012345678"},
		{in: "+20 101 234 5678", want: "+201012345678"},
		{in: "0020 101 234 5678", want: "+201012345678"},
		{in: "+44 20 7946 0958", want: "+20442079460958"},
		{in: "", want: ""},
		{in: "abc", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in, "20"))
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	for _, in := range []string{"01012345678", "1012345678", "+201012345678", "00201012345678", "+44 20 7946 0958", "2010"} {
		once := NormalizePhone(in, "20")
		assert.Equal(t, once, NormalizePhone(once, "20"), in)
		assert.Regexp(t, `^\+20[0-9]+$`, once)
	}
}

func TestShortCode(t *testing.T) {
	assert.Equal(t, "B4A3F2", ShortCode("6650f1c2a9b8e7d6c5b4a3f2"))
	assert.Equal(t, "6E2F10", ShortCode("0b7c56d4-0f1e-4c27-9a3b-1c2d3e6e2f10"))
	assert.Equal(t, "AB1", ShortCode("ab1"))
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled} {
		parsed, err := ParseStatus(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLocationValidate(t *testing.T) {
	assert.NoError(t, Location{Lat: 30, Lng: 31, Address: "Cairo"}.Validate())
	assert.ErrorIs(t, Location{Lat: -91, Lng: 31, Address: "x"}.Validate(), ErrInvalidCoordinates)
	assert.ErrorIs(t, Location{Lat: 0, Lng: 181, Address: "x"}.Validate(), ErrInvalidCoordinates)
	assert.ErrorIs(t, Location{Lat: 30, Lng: 31, Address: "  "}.Validate(), ErrEmptyAddress)
}
