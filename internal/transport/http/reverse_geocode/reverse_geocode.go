package reversegeocode

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	ResolveAddress(ctx context.Context, lat, lng float64) string
}

type reverseRequest struct {
	Lat *float64 `schema:"lat,required"`
	Lng *float64 `schema:"lng,required"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// ReverseGeocode resolves lat/lng to a display address. Lookup failures fall back to the
// formatted coordinates, so the only error is a malformed request.
func ReverseGeocode(w http.ResponseWriter, r *http.Request, service service) {
	req := &reverseRequest{}
	if err := decoder.Decode(req, r.URL.Query()); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid coordinates", err.Error())

		return
	}
	if !order.ValidCoordinates(*req.Lat, *req.Lng) {
		response.Error(w, http.StatusBadRequest, "Invalid coordinates", order.ErrInvalidCoordinates.Error())

		return
	}

	response.JSON(w, http.StatusOK, order.Location{
		Lat:     *req.Lat,
		Lng:     *req.Lng,
		Address: service.ResolveAddress(r.Context(), *req.Lat, *req.Lng),
	})
}
