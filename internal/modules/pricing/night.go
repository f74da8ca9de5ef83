// README: Night shift classification against a nightly window that may wrap past midnight.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

// NightCalculator classifies intervals against [StartHour:00, EndHour:00) local time.
type NightCalculator struct {
	StartHour  int
	EndHour    int
	SingleRate decimal.Decimal
	DoubleRate decimal.Decimal
	Currency   string
}

func (n NightCalculator) wraps() bool {
	return n.StartHour > n.EndHour
}

// IsNightTime reports whether the wall-clock hour of t falls in the window.
// With the default window 22:00 is night and 06:00 is day.
func (n NightCalculator) IsNightTime(t time.Time) bool {
	h := t.Hour()
	if n.wraps() {
		return h >= n.StartHour || h < n.EndHour
	}
	return h >= n.StartHour && h < n.EndHour
}

// Calculate counts the distinct night periods that [start, start+duration) intersects.
// A period is keyed by the date it begins on, so an interval ending exactly at
// EndHour still counts the night it traversed.
func (n NightCalculator) Calculate(start time.Time, durationHours float64) (NightResult, error) {
	if start.IsZero() {
		return NightResult{}, types.Invalid("scheduled_time", "is required")
	}
	if math.IsNaN(durationHours) || math.IsInf(durationHours, 0) || durationHours <= 0 {
		return NightResult{}, types.Invalid("duration_hours", "must be a positive number, got %v", durationHours)
	}
	end := start.Add(time.Duration(durationHours * float64(time.Hour)))

	count := n.countPeriods(start, end)
	res := NightResult{NightsCount: count, Fee: decimal.Zero}
	switch {
	case count == 0:
		res.Type = NightNone
		res.Explanation = fmt.Sprintf("Booking stays outside the night window (%s); no night surcharge.", n.window())
	case count == 1:
		res.Type = NightSingle
		res.Fee = n.SingleRate
		res.IsNightShift = true
		res.Explanation = fmt.Sprintf("Booking overlaps one night period (%s); single night surcharge of %s %s applies.",
			n.window(), n.SingleRate.StringFixed(types.MinorUnitPlaces), n.Currency)
	default:
		res.Type = NightDouble
		res.Fee = n.DoubleRate
		res.IsNightShift = true
		res.Explanation = fmt.Sprintf("Booking spans %d night periods (%s); double night surcharge of %s %s applies.",
			count, n.window(), n.DoubleRate.StringFixed(types.MinorUnitPlaces), n.Currency)
	}
	return res, nil
}

func (n NightCalculator) countPeriods(start, end time.Time) int {
	loc := start.Location()
	y, m, d := start.Date()
	// The night that began the previous evening may still cover start.
	day := time.Date(y, m, d-1, 0, 0, 0, 0, loc)

	count := 0
	for {
		periodStart := time.Date(day.Year(), day.Month(), day.Day(), n.StartHour, 0, 0, 0, loc)
		if !periodStart.Before(end) {
			return count
		}
		endDay := day.Day()
		if n.wraps() {
			endDay++
		}
		periodEnd := time.Date(day.Year(), day.Month(), endDay, n.EndHour, 0, 0, 0, loc)
		if periodEnd.After(start) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
}

func (n NightCalculator) window() string {
	return fmt.Sprintf("%02d:00-%02d:00", n.StartHour, n.EndHour)
}
