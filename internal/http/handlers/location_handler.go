// README: Provider live location handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"khadamat/internal/modules/location"
	"khadamat/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

type locationReq struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Offline bool     `json:"offline"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing id")
		return
	}
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u := location.Update{ProviderID: types.ID(id), Offline: req.Offline}
	if !req.Offline {
		if req.Lat == nil || req.Lng == nil {
			writeServiceError(c, types.Invalid("lat", "lat and lng are required"))
			return
		}
		u.Position = types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	if err := h.location.Update(c.Request.Context(), u); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}
