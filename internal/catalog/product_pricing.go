package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Simplici0/pricebook/internal/pricing"
)

// ProductPricing is the stored outcome of the latest calculation for a product.
// FinalPrice is persisted unrounded; SuggestedPrice is derived on read from the stored rounding increment.
// PaymentMethodID is 0 when the fallback policy was used or the method was deleted since.
type ProductPricing struct {
	ProductID       int64
	PaymentMethodID int64
	PaymentMethod   string
	Inputs          pricing.CostInputs
	Policy          pricing.Policy
	Result          pricing.Result
	UpdatedAt       time.Time
}

func pricingColumns(alias string) string {
	cols := []string{
		"product_id", "payment_method_id", "payment_method", "inputs_json",
		"payment_flat_fee", "payment_fee_rate", "rounding_increment",
		"direct_costs", "fixed_costs", "marketing_cost", "profit_amount",
		"price_before_fees", "payment_gateway_fees", "final_price", "updated_at",
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// nullablePricing scans pricing columns that may come from a LEFT JOIN.
type nullablePricing struct {
	productID     sql.NullInt64
	methodID      sql.NullInt64
	paymentMethod sql.NullString
	inputsJSON    sql.NullString
	flatFee       sql.NullFloat64
	feeRate       sql.NullFloat64
	increment     sql.NullFloat64
	direct        sql.NullFloat64
	fixed         sql.NullFloat64
	marketing     sql.NullFloat64
	profit        sql.NullFloat64
	beforeFees    sql.NullFloat64
	gatewayFees   sql.NullFloat64
	finalPrice    sql.NullFloat64
	updatedAt     sql.NullTime
}

func (n *nullablePricing) dest() []any {
	return []any{
		&n.productID, &n.methodID, &n.paymentMethod, &n.inputsJSON,
		&n.flatFee, &n.feeRate, &n.increment,
		&n.direct, &n.fixed, &n.marketing, &n.profit,
		&n.beforeFees, &n.gatewayFees, &n.finalPrice, &n.updatedAt,
	}
}

func (n *nullablePricing) value() (*ProductPricing, error) {
	if !n.productID.Valid {
		return nil, nil
	}

	pp := &ProductPricing{
		ProductID:       n.productID.Int64,
		PaymentMethodID: n.methodID.Int64,
		PaymentMethod:   n.paymentMethod.String,
		Policy: pricing.Policy{
			PaymentFlatFee:    n.flatFee.Float64,
			PaymentFeeRate:    n.feeRate.Float64,
			RoundingIncrement: n.increment.Float64,
		},
		Result: pricing.Result{
			DirectCosts:        n.direct.Float64,
			FixedCosts:         n.fixed.Float64,
			MarketingCost:      n.marketing.Float64,
			ProfitAmount:       n.profit.Float64,
			PriceBeforeFees:    n.beforeFees.Float64,
			PaymentGatewayFees: n.gatewayFees.Float64,
			FinalPrice:         n.finalPrice.Float64,
		},
		UpdatedAt: n.updatedAt.Time,
	}
	pp.Result.SuggestedPrice = pricing.RoundUp(pp.Result.FinalPrice, pp.Policy.RoundingIncrement)

	if err := json.Unmarshal([]byte(n.inputsJSON.String), &pp.Inputs); err != nil {
		return nil, fmt.Errorf("decode cost inputs: %w", err)
	}
	return pp, nil
}

// GetPricing loads the stored pricing of a product.
func (s *Store) GetPricing(ctx context.Context, productID int64) (ProductPricing, error) {
	var pr nullablePricing
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+pricingColumns("pp")+`
		FROM product_pricing pp
		WHERE pp.product_id = ?
	`), productID).Scan(pr.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductPricing{}, ErrNotFound
	}
	if err != nil {
		return ProductPricing{}, fmt.Errorf("query pricing for product %d: %w", productID, err)
	}

	pp, err := pr.value()
	if err != nil {
		return ProductPricing{}, err
	}
	return *pp, nil
}

// SavePricing stores a calculation for a product, replacing any previous one.
func (s *Store) SavePricing(ctx context.Context, pp ProductPricing) error {
	if !finiteResult(pp.Result) {
		return fmt.Errorf("pricing for product %d has a non-finite amount", pp.ProductID)
	}

	inputs, err := json.Marshal(pp.Inputs)
	if err != nil {
		return fmt.Errorf("encode cost inputs: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save pricing transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`), pp.ProductID).Scan(&exists); err != nil {
		return fmt.Errorf("check product %d existence: %w", pp.ProductID, err)
	}
	if !exists {
		return ErrNotFound
	}

	r := pp.Result
	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO product_pricing (
			product_id,
			payment_method_id,
			payment_method,
			inputs_json,
			payment_flat_fee,
			payment_fee_rate,
			rounding_increment,
			direct_costs,
			fixed_costs,
			marketing_cost,
			profit_amount,
			price_before_fees,
			payment_gateway_fees,
			final_price,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (product_id) DO UPDATE SET
			payment_method_id = excluded.payment_method_id,
			payment_method = excluded.payment_method,
			inputs_json = excluded.inputs_json,
			payment_flat_fee = excluded.payment_flat_fee,
			payment_fee_rate = excluded.payment_fee_rate,
			rounding_increment = excluded.rounding_increment,
			direct_costs = excluded.direct_costs,
			fixed_costs = excluded.fixed_costs,
			marketing_cost = excluded.marketing_cost,
			profit_amount = excluded.profit_amount,
			price_before_fees = excluded.price_before_fees,
			payment_gateway_fees = excluded.payment_gateway_fees,
			final_price = excluded.final_price,
			updated_at = excluded.updated_at
	`),
		pp.ProductID,
		nullID(pp.PaymentMethodID),
		pp.PaymentMethod,
		string(inputs),
		pp.Policy.PaymentFlatFee,
		pp.Policy.PaymentFeeRate,
		pp.Policy.RoundingIncrement,
		r.DirectCosts,
		r.FixedCosts,
		r.MarketingCost,
		r.ProfitAmount,
		r.PriceBeforeFees,
		r.PaymentGatewayFees,
		r.FinalPrice,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert pricing for product %d: %w", pp.ProductID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save pricing transaction: %w", err)
	}
	return nil
}

func finiteResult(r pricing.Result) bool {
	for _, v := range []float64{
		r.DirectCosts, r.FixedCosts, r.MarketingCost, r.ProfitAmount,
		r.PriceBeforeFees, r.PaymentGatewayFees, r.FinalPrice,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
