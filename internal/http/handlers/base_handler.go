// README: Base handler utilities (JSON helpers, error mapping, input parsing).
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"khadamat/internal/http/middleware"
	"khadamat/internal/maps"
	"khadamat/internal/modules/matching"
	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeServiceError(c *gin.Context, err error) {
	if ve, ok := types.AsValidation(err); ok {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field, Reason: ve.Reason})
		return
	}
	switch {
	case errors.Is(err, pricing.ErrInvalidRates):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrServiceNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, maps.ErrAddressNotFound):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, matching.ErrDiagnosticsDisabled):
		writeError(c, http.StatusForbidden, err.Error())
	default:
		_ = c.Error(err)
		middleware.Logger(c).Error("request failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// Accepted instant layouts. Instants are local civil time; zone information,
// when present, is kept as sent.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseTime(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, types.Invalid(field, "is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, types.Invalid(field, "unparseable instant %q, expected ISO-8601", v)
}

func queryFloat(c *gin.Context, name string) (float64, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, types.Invalid(name, "must be a number, got %q", raw)
	}
	return f, true, nil
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, types.Invalid(name, "must be a boolean, got %q", raw)
	}
	return b, nil
}
