// README: Pricing store backed by PostgreSQL: catalogue services and published rate versions.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetService(ctx context.Context, id types.ID) (ServiceRecord, error) {
	var (
		rec      ServiceRecord
		rawID    string
		base     string
		formulas []string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, base_price::text, duration_minutes, COALESCE(allowed_formulas, '{}')
		FROM services
		WHERE id = $1
	`, string(id)).Scan(&rawID, &base, &rec.DurationMinutes, &formulas)
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceRecord{}, ErrServiceNotFound
	}
	if err != nil {
		return ServiceRecord{}, err
	}
	rec.ID = types.ID(rawID)
	if rec.BasePrice, err = decimal.NewFromString(base); err != nil {
		return ServiceRecord{}, fmt.Errorf("service %s base_price %q: %w", rawID, base, err)
	}
	for _, f := range formulas {
		parsed, err := ParseFormula(f)
		if err != nil {
			return ServiceRecord{}, fmt.Errorf("service %s: %w", rawID, err)
		}
		rec.AllowedFormulas = append(rec.AllowedFormulas, parsed)
	}
	return rec, nil
}

// LatestRates returns the highest published version; ok is false when the table is empty.
func (s *Store) LatestRates(ctx context.Context) (Rates, bool, error) {
	var (
		r                          Rates
		single, double, commission string
	)
	err := s.db.QueryRow(ctx, `
		SELECT version, night_start_hour, night_end_hour,
		       single_night_rate::text, double_night_rate::text, commission_rate::text,
		       default_free_radius_km, default_price_per_extra_km, currency, effective_at
		FROM pricing_rates
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&r.Version, &r.NightStartHour, &r.NightEndHour,
		&single, &double, &commission,
		&r.DefaultFreeRadiusKm, &r.DefaultPricePerExtraKm, &r.Currency, &r.EffectiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rates{}, false, nil
	}
	if err != nil {
		return Rates{}, false, err
	}
	if r.SingleNightRate, err = decimal.NewFromString(single); err != nil {
		return Rates{}, false, err
	}
	if r.DoubleNightRate, err = decimal.NewFromString(double); err != nil {
		return Rates{}, false, err
	}
	if r.CommissionRate, err = decimal.NewFromString(commission); err != nil {
		return Rates{}, false, err
	}
	return r, true, nil
}

func (s *Store) SaveRates(ctx context.Context, r Rates) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing_rates (
			version, night_start_hour, night_end_hour,
			single_night_rate, double_night_rate, commission_rate,
			default_free_radius_km, default_price_per_extra_km, currency, effective_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10)
	`, r.Version, r.NightStartHour, r.NightEndHour,
		r.SingleNightRate.String(), r.DoubleNightRate.String(), r.CommissionRate.String(),
		r.DefaultFreeRadiusKm, r.DefaultPricePerExtraKm, r.Currency, r.EffectiveAt)
	return err
}
