package pricing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

func defaultNight() NightCalculator {
	return NightCalculator{
		StartHour:  22,
		EndHour:    6,
		SingleRate: decimal.NewFromInt(50),
		DoubleRate: decimal.NewFromInt(100),
		Currency:   "MAD",
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func TestIsNightTime_Boundaries(t *testing.T) {
	n := defaultNight()
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"21:59 is day", at(15, 21, 59), false},
		{"22:00 is night", at(15, 22, 0), true},
		{"midnight is night", at(16, 0, 0), true},
		{"05:59 is night", at(16, 5, 59), true},
		{"06:00 is day", at(16, 6, 0), false},
		{"noon is day", at(15, 12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.IsNightTime(tt.t); got != tt.want {
				t.Errorf("IsNightTime(%s) = %v, want %v", tt.t.Format(time.TimeOnly), got, tt.want)
			}
		})
	}
}

func TestIsNightTime_NonWrappingWindow(t *testing.T) {
	n := NightCalculator{StartHour: 0, EndHour: 5}
	if !n.IsNightTime(at(15, 0, 0)) || !n.IsNightTime(at(15, 4, 59)) {
		t.Error("expected 00:00 and 04:59 to be night")
	}
	if n.IsNightTime(at(15, 5, 0)) || n.IsNightTime(at(15, 23, 0)) {
		t.Error("expected 05:00 and 23:00 to be day")
	}
}

func TestNightCalculate_Scenarios(t *testing.T) {
	n := defaultNight()
	tests := []struct {
		name       string
		start      time.Time
		hours      float64
		wantType   NightType
		wantNights int
		wantFee    int64
	}{
		{"23:00 for 2h", at(15, 23, 0), 2, NightSingle, 1, 50},
		{"23:00 for 9h into next morning", at(15, 23, 0), 9, NightSingle, 1, 50},
		{"22:00 for 33h spans two nights", at(15, 22, 0), 33, NightDouble, 2, 100},
		{"14:00 for 2h", at(15, 14, 0), 2, NightNone, 0, 0},
		{"entirely inside the day", at(15, 6, 0), 16, NightNone, 0, 0},
		{"starts exactly at 22:00", at(15, 22, 0), 0.5, NightSingle, 1, 50},
		{"ends exactly at 22:00", at(15, 20, 0), 2, NightNone, 0, 0},
		{"ends exactly at 06:00", at(15, 23, 0), 7, NightSingle, 1, 50},
		{"starts exactly at 06:00", at(16, 6, 0), 3, NightNone, 0, 0},
		{"starts at 03:00 inside previous night", at(16, 3, 0), 1, NightSingle, 1, 50},
		{"three nights keep the double rate", at(15, 23, 0), 50, NightDouble, 3, 100},
		{"fractional duration", at(15, 21, 30), 0.75, NightSingle, 1, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Calculate(tt.start, tt.hours)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got.Type != tt.wantType {
				t.Errorf("type = %s, want %s", got.Type, tt.wantType)
			}
			if got.NightsCount != tt.wantNights {
				t.Errorf("nights = %d, want %d", got.NightsCount, tt.wantNights)
			}
			if !got.Fee.Equal(decimal.NewFromInt(tt.wantFee)) {
				t.Errorf("fee = %s, want %d", got.Fee, tt.wantFee)
			}
			if got.IsNightShift != (tt.wantType != NightNone) {
				t.Errorf("is_night_shift = %v for type %s", got.IsNightShift, got.Type)
			}
			if got.Explanation == "" {
				t.Error("expected an explanation")
			}
		})
	}
}

func TestNightCalculate_Invariants(t *testing.T) {
	n := defaultNight()
	for startHour := 0; startHour < 24; startHour++ {
		for _, hours := range []float64{0.25, 1, 3, 7.5, 8, 12, 24, 30, 48, 100} {
			got, err := n.Calculate(at(15, startHour, 0), hours)
			if err != nil {
				t.Fatalf("Calculate(%d:00, %v) error = %v", startHour, hours, err)
			}
			if (got.NightsCount == 0) != (got.Type == NightNone) {
				t.Errorf("%d:00 +%vh: nights=%d type=%s", startHour, hours, got.NightsCount, got.Type)
			}
			if (got.Type == NightNone) != got.Fee.IsZero() {
				t.Errorf("%d:00 +%vh: type=%s fee=%s", startHour, hours, got.Type, got.Fee)
			}
			if got.NightsCount >= 2 && got.Type != NightDouble {
				t.Errorf("%d:00 +%vh: %d nights but type %s", startHour, hours, got.NightsCount, got.Type)
			}
		}
	}
}

func TestNightCalculate_RejectsBadInput(t *testing.T) {
	n := defaultNight()
	tests := []struct {
		name  string
		start time.Time
		hours float64
		field string
	}{
		{"zero duration", at(15, 23, 0), 0, "duration_hours"},
		{"negative duration", at(15, 23, 0), -2, "duration_hours"},
		{"NaN duration", at(15, 23, 0), math.NaN(), "duration_hours"},
		{"zero instant", time.Time{}, 2, "scheduled_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Calculate(tt.start, tt.hours)
			if !errors.Is(err, types.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			ve, _ := types.AsValidation(err)
			if ve.Field != tt.field {
				t.Errorf("field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}
