// README: Admin handler publishing a new rate snapshot.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"khadamat/internal/http/middleware"
	"khadamat/internal/modules/pricing"
)

type AdminHandler struct {
	pricing *pricing.Service
}

func NewAdminHandler(svc *pricing.Service) *AdminHandler {
	return &AdminHandler{pricing: svc}
}

// publishRatesReq overlays the current snapshot; absent fields keep their value.
type publishRatesReq struct {
	NightStartHour         *int     `json:"night_start_hour"`
	NightEndHour           *int     `json:"night_end_hour"`
	SingleNightRate        *float64 `json:"single_night_rate"`
	DoubleNightRate        *float64 `json:"double_night_rate"`
	CommissionRate         *float64 `json:"commission_rate"`
	DefaultFreeRadiusKm    *float64 `json:"default_free_radius_km"`
	DefaultPricePerExtraKm *float64 `json:"default_price_per_extra_km"`
}

func (r publishRatesReq) apply(base pricing.Rates) pricing.Rates {
	next := base
	next.EffectiveAt = time.Time{}
	if r.NightStartHour != nil {
		next.NightStartHour = *r.NightStartHour
	}
	if r.NightEndHour != nil {
		next.NightEndHour = *r.NightEndHour
	}
	if r.SingleNightRate != nil {
		next.SingleNightRate = decimal.NewFromFloat(*r.SingleNightRate)
	}
	if r.DoubleNightRate != nil {
		next.DoubleNightRate = decimal.NewFromFloat(*r.DoubleNightRate)
	}
	if r.CommissionRate != nil {
		next.CommissionRate = decimal.NewFromFloat(*r.CommissionRate)
	}
	if r.DefaultFreeRadiusKm != nil {
		next.DefaultFreeRadiusKm = *r.DefaultFreeRadiusKm
	}
	if r.DefaultPricePerExtraKm != nil {
		next.DefaultPricePerExtraKm = *r.DefaultPricePerExtraKm
	}
	return next
}

func (h *AdminHandler) PublishRates(c *gin.Context) {
	var req publishRatesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	published, err := h.pricing.PublishRates(c.Request.Context(), req.apply(h.pricing.Rates()))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	middleware.Logger(c).Info("rates published by admin", zap.Int64("version", published.Version))
	writeJSON(c, http.StatusOK, newRatesResponse(published))
}
