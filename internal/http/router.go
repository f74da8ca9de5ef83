// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"khadamat/internal/config"
	"khadamat/internal/http/handlers"
	"khadamat/internal/http/middleware"
	"khadamat/internal/modules/location"
	"khadamat/internal/modules/matching"
	"khadamat/internal/modules/pricing"
)

type RouterDeps struct {
	Pricing  *pricing.Service
	Matching *matching.Service
	Location *location.Service
	Config   config.Config
	Logger   *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.RateLimit(deps.Config.RateLimit, log),
	)

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	r.POST("/pricing/calculate", pricingHandler.Calculate)
	r.POST("/pricing/check-night", pricingHandler.CheckNight)
	r.GET("/pricing/check-night-quick", pricingHandler.CheckNightQuick)
	r.GET("/pricing/night-rates", pricingHandler.NightRates)

	providerHandler := handlers.NewProviderHandler(deps.Matching)
	r.GET("/services/:service_id/nearby-providers", providerHandler.Nearby)

	if deps.Location != nil {
		locationHandler := handlers.NewLocationHandler(deps.Location)
		r.PUT("/providers/:id/location", locationHandler.Update)
	}

	adminHandler := handlers.NewAdminHandler(deps.Pricing)
	admin := r.Group("/admin", middleware.AdminToken(deps.Config.Admin.Token))
	admin.PUT("/pricing/rates", adminHandler.PublishRates)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}
