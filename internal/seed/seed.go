package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/pricebook/internal/db"
	"github.com/Simplici0/pricebook/internal/pricing"
)

const (
	installmentsMethodName = "Installments"
	cardMethodName         = "Card"
	cardFeeRate            = 0.029
	defaultCurrency        = "SAR"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string

	// Policy is the fee schedule of the default installments method and the rounding of the settings.
	Policy               pricing.Policy
	DefaultFixedCosts    float64
	DefaultMarginPercent float64
	Currency             string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, database *sql.DB, driver string, cfg Config) (Stats, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	s := seeder{tx: tx, driver: driver}

	if err := s.admin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	installmentsID, err := s.paymentMethod(ctx, installmentsMethodName, cfg.Policy.PaymentFlatFee, cfg.Policy.PaymentFeeRate)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if _, err := s.paymentMethod(ctx, cardMethodName, 0, cardFeeRate); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := s.settings(ctx, cfg, installmentsID); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return s.stats, nil
}

type seeder struct {
	tx     *sql.Tx
	driver string
	stats  Stats
}

func (s *seeder) q(query string) string {
	return db.Rebind(s.driver, query)
}

func (s *seeder) admin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := s.tx.QueryRowContext(ctx, s.q(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`), email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := s.tx.ExecContext(ctx, s.q(`INSERT INTO users (email, password_hash) VALUES (?, ?)`), email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	s.stats.Inserts++
	return nil
}

func (s *seeder) paymentMethod(ctx context.Context, name string, flatFee, feeRate float64) (int64, error) {
	var id int64
	err := s.tx.QueryRowContext(ctx, s.q(`SELECT id FROM payment_methods WHERE name = ?`), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check payment method %q existence: %w", name, err)
	}

	if err := s.tx.QueryRowContext(ctx, s.q(`
		INSERT INTO payment_methods (name, flat_fee, fee_rate, active)
		VALUES (?, ?, ?, TRUE)
		RETURNING id
	`), name, flatFee, feeRate).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert payment method %q: %w", name, err)
	}
	s.stats.Inserts++
	return id, nil
}

func (s *seeder) settings(ctx context.Context, cfg Config, defaultMethodID int64) error {
	var methodID sql.NullInt64
	err := s.tx.QueryRowContext(ctx, `SELECT default_payment_method_id FROM pricing_settings WHERE id = 1`).Scan(&methodID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		currency := cfg.Currency
		if currency == "" {
			currency = defaultCurrency
		}
		if _, err := s.tx.ExecContext(ctx, s.q(`
			INSERT INTO pricing_settings (
				id,
				default_fixed_costs,
				default_margin_percent,
				rounding_increment,
				default_payment_method_id,
				currency
			)
			VALUES (1, ?, ?, ?, ?, ?)
		`), cfg.DefaultFixedCosts, cfg.DefaultMarginPercent, cfg.Policy.RoundingIncrement, defaultMethodID, currency); err != nil {
			return fmt.Errorf("insert pricing settings singleton: %w", err)
		}
		s.stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check pricing settings existence: %w", err)
	}

	if methodID.Valid {
		return nil
	}
	if _, err := s.tx.ExecContext(ctx, s.q(`UPDATE pricing_settings SET default_payment_method_id = ? WHERE id = 1`), defaultMethodID); err != nil {
		return fmt.Errorf("set default payment method: %w", err)
	}
	s.stats.Updates++
	return nil
}
