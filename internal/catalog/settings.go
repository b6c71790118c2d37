package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/pricebook/internal/pricing"
)

// Settings is the singleton of seller-wide pricing defaults.
type Settings struct {
	DefaultFixedCosts      float64
	DefaultMarginPercent   float64
	RoundingIncrement      float64
	DefaultPaymentMethodID int64
	Currency               string
	UpdatedAt              time.Time
}

// DefaultInputs returns calculator inputs pre-filled from the settings.
func (st Settings) DefaultInputs() pricing.CostInputs {
	return pricing.CostInputs{
		FixedCosts:          st.DefaultFixedCosts,
		ProfitMarginPercent: st.DefaultMarginPercent,
		MarketingMode:       pricing.MarketingFixed,
	}
}

// EnsureSettings inserts the singleton when it is missing. It reports whether a row was created.
func (s *Store) EnsureSettings(ctx context.Context, st Settings) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO pricing_settings (
			id,
			default_fixed_costs,
			default_margin_percent,
			rounding_increment,
			default_payment_method_id,
			currency
		) VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`), st.DefaultFixedCosts, st.DefaultMarginPercent, st.RoundingIncrement, nullID(st.DefaultPaymentMethodID), st.Currency)
	if err != nil {
		return false, fmt.Errorf("insert default pricing_settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetSettings loads the settings singleton.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var st Settings
	var methodID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT default_fixed_costs, default_margin_percent, rounding_increment, default_payment_method_id, currency, updated_at
		FROM pricing_settings
		WHERE id = 1
	`).Scan(
		&st.DefaultFixedCosts,
		&st.DefaultMarginPercent,
		&st.RoundingIncrement,
		&methodID,
		&st.Currency,
		&st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("query pricing_settings: %w", err)
	}
	st.DefaultPaymentMethodID = methodID.Int64
	return st, nil
}

// UpdateSettings overwrites the settings singleton.
func (s *Store) UpdateSettings(ctx context.Context, st Settings) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE pricing_settings
		SET
			default_fixed_costs = ?,
			default_margin_percent = ?,
			rounding_increment = ?,
			default_payment_method_id = ?,
			currency = ?,
			updated_at = ?
		WHERE id = 1
	`),
		st.DefaultFixedCosts,
		st.DefaultMarginPercent,
		st.RoundingIncrement,
		nullID(st.DefaultPaymentMethodID),
		st.Currency,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update pricing_settings: %w", err)
	}
	return expectAffected(result)
}

// PolicyFor resolves the fee policy for a calculation: the given payment method, else the
// settings default, else fallback. Rounding always comes from the settings when they exist.
// An explicitly requested inactive method yields ErrPaymentMethodInactive; an inactive settings
// default is skipped. The returned method is the zero value when fallback was used.
func (s *Store) PolicyFor(ctx context.Context, methodID int64, fallback pricing.Policy) (pricing.Policy, PaymentMethod, error) {
	policy := fallback

	st, err := s.GetSettings(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return pricing.Policy{}, PaymentMethod{}, err
	default:
		policy.RoundingIncrement = st.RoundingIncrement
	}

	if methodID > 0 {
		method, err := s.GetPaymentMethod(ctx, methodID)
		if err != nil {
			return pricing.Policy{}, PaymentMethod{}, err
		}
		if !method.Active {
			return pricing.Policy{}, PaymentMethod{}, ErrPaymentMethodInactive
		}
		return method.Policy(policy.RoundingIncrement), method, nil
	}

	if st.DefaultPaymentMethodID > 0 {
		method, err := s.GetPaymentMethod(ctx, st.DefaultPaymentMethodID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return pricing.Policy{}, PaymentMethod{}, err
		case method.Active:
			return method.Policy(policy.RoundingIncrement), method, nil
		}
	}

	return policy, PaymentMethod{}, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
