// README: Pricing handlers: authoritative breakdown, night checks and current rates.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
	now     func() time.Time
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc, now: time.Now}
}

type calculateReq struct {
	ServiceID       string   `json:"service_id"`
	FormulaType     string   `json:"formula_type"`
	ScheduledTime   string   `json:"scheduled_time"`
	DurationHours   float64  `json:"duration_hours"`
	DistanceKm      float64  `json:"distance_km"`
	Quantity        int      `json:"quantity"`
	FreeRadiusKm    *float64 `json:"free_radius_km"`
	PricePerExtraKm *float64 `json:"price_per_extra_km"`
	CommissionRate  *float64 `json:"commission_rate"`
}

func (h *PricingHandler) Calculate(c *gin.Context) {
	var req calculateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	scheduled, err := parseTime("scheduled_time", req.ScheduledTime)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	b, err := h.pricing.Calculate(c.Request.Context(), pricing.CalculateCommand{
		ServiceID:      types.ID(req.ServiceID),
		Formula:        req.FormulaType,
		ScheduledTime:  scheduled,
		DurationHours:  req.DurationHours,
		DistanceKm:     req.DistanceKm,
		Quantity:       req.Quantity,
		Provider:       pricing.ProviderTerms{FreeRadiusKm: req.FreeRadiusKm, PricePerExtraKm: req.PricePerExtraKm},
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newBreakdownResponse(b))
}

type checkNightReq struct {
	ScheduledTime          string  `json:"scheduled_time"`
	EstimatedDurationHours float64 `json:"estimated_duration_hours"`
}

func (h *PricingHandler) CheckNight(c *gin.Context) {
	var req checkNightReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	scheduled, err := parseTime("scheduled_time", req.ScheduledTime)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	n, err := h.pricing.CheckNight(scheduled, req.EstimatedDurationHours)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newNightResponse(n))
}

// CheckNightQuick answers is_night_time for ?time=, defaulting to the server clock.
func (h *PricingHandler) CheckNightQuick(c *gin.Context) {
	t := h.now()
	if raw := c.Query("time"); raw != "" {
		parsed, err := parseTime("time", raw)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		t = parsed
	}
	writeJSON(c, http.StatusOK, gin.H{
		"time":     t.Format("2006-01-02T15:04:05"),
		"is_night": h.pricing.IsNightTime(t),
	})
}

func (h *PricingHandler) NightRates(c *gin.Context) {
	writeJSON(c, http.StatusOK, newRatesResponse(h.pricing.Rates()))
}
