// README: Nearby provider search handler.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"khadamat/internal/modules/matching"
	"khadamat/internal/types"
)

type ProviderHandler struct {
	matching *matching.Service
}

func NewProviderHandler(svc *matching.Service) *ProviderHandler {
	return &ProviderHandler{matching: svc}
}

func (h *ProviderHandler) Nearby(c *gin.Context) {
	params, err := nearbyParams(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	res, err := h.matching.NearbyProviders(c.Request.Context(), params)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newSearchResponse(res))
}

func nearbyParams(c *gin.Context) (matching.SearchParams, error) {
	p := matching.SearchParams{
		ServiceID: types.ID(c.Param("service_id")),
		Address:   strings.TrimSpace(c.Query("address")),
		Formula:   strings.TrimSpace(c.Query("formula")),
	}
	lat, hasLat, err := queryFloat(c, "lat")
	if err != nil {
		return p, err
	}
	lng, hasLng, err := queryFloat(c, "lng")
	if err != nil {
		return p, err
	}
	if hasLat != hasLng {
		return p, types.Invalid("lat", "lat and lng must be sent together")
	}
	if !hasLat && p.Address == "" {
		return p, types.Invalid("lat", "lat and lng or address are required")
	}
	p.Lat, p.Lng = lat, lng

	if p.RadiusKm, _, err = queryFloat(c, "radius"); err != nil {
		return p, err
	}
	if p.OnlyAvailable, err = queryBool(c, "only_available"); err != nil {
		return p, err
	}
	if p.IncludeOutOfRange, err = queryBool(c, "include_out_of_range"); err != nil {
		return p, err
	}
	if raw := c.Query("scheduled_time"); raw != "" {
		t, err := parseTime("scheduled_time", raw)
		if err != nil {
			return p, err
		}
		p.ScheduledTime = &t
	}
	return p, nil
}
