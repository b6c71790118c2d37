package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/pricebook/internal/pricing"
)

// PaymentMethod is a gateway fee schedule: a flat fee plus a rate on the pre-fee price.
type PaymentMethod struct {
	ID      int64
	Name    string
	FlatFee float64
	FeeRate float64
	Active  bool
}

// Policy combines the fee schedule with a display rounding increment.
func (m PaymentMethod) Policy(roundingIncrement float64) pricing.Policy {
	return pricing.Policy{
		PaymentFlatFee:    m.FlatFee,
		PaymentFeeRate:    m.FeeRate,
		RoundingIncrement: roundingIncrement,
	}
}

// ListPaymentMethods returns payment methods ordered by name.
func (s *Store) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, flat_fee, fee_rate, active
		FROM payment_methods
		WHERE (? = FALSE OR active = TRUE)
		ORDER BY name ASC, id ASC
	`), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]PaymentMethod, 0)
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.FlatFee, &m.FeeRate, &m.Active); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment methods: %w", err)
	}

	return methods, nil
}

// GetPaymentMethod loads one payment method.
func (s *Store) GetPaymentMethod(ctx context.Context, id int64) (PaymentMethod, error) {
	var m PaymentMethod
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, flat_fee, fee_rate, active
		FROM payment_methods
		WHERE id = ?
	`), id).Scan(&m.ID, &m.Name, &m.FlatFee, &m.FeeRate, &m.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return PaymentMethod{}, ErrNotFound
	}
	if err != nil {
		return PaymentMethod{}, fmt.Errorf("query payment method %d: %w", id, err)
	}
	return m, nil
}

// CreatePaymentMethod inserts a payment method and returns its id.
func (s *Store) CreatePaymentMethod(ctx context.Context, m PaymentMethod) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO payment_methods (name, flat_fee, fee_rate, active)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), m.Name, m.FlatFee, m.FeeRate, m.Active).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment method: %w", err)
	}
	return id, nil
}

// UpdatePaymentMethod overwrites an existing payment method.
func (s *Store) UpdatePaymentMethod(ctx context.Context, m PaymentMethod) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE payment_methods
		SET
			name = ?,
			flat_fee = ?,
			fee_rate = ?,
			active = ?,
			updated_at = ?
		WHERE id = ?
	`), m.Name, m.FlatFee, m.FeeRate, m.Active, time.Now().UTC(), m.ID)
	if err != nil {
		return fmt.Errorf("update payment method %d: %w", m.ID, err)
	}
	return expectAffected(result)
}
