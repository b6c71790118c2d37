package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Product is one catalog entry.
type Product struct {
	ID        int64
	Name      string
	SKU       string
	Category  string
	SalePrice float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PricedProduct is a product joined with its latest pricing, if any.
type PricedProduct struct {
	Product
	Pricing *ProductPricing
}

// ListProducts returns products matching query on name, SKU or category, newest first.
func (s *Store) ListProducts(ctx context.Context, query string) ([]PricedProduct, error) {
	search := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT
			p.id, p.name, p.sku, p.category, p.sale_price, p.active, p.created_at, p.updated_at,
			`+pricingColumns("pp")+`
		FROM products p
		LEFT JOIN product_pricing pp ON pp.product_id = p.id
		WHERE (? = '' OR LOWER(p.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(p.sku) LIKE LOWER(?) ESCAPE '\' OR LOWER(p.category) LIKE LOWER(?) ESCAPE '\')
		ORDER BY p.created_at DESC, p.id DESC
	`), query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]PricedProduct, 0)
	for rows.Next() {
		var item PricedProduct
		var pr nullablePricing
		dest := []any{
			&item.ID, &item.Name, &item.SKU, &item.Category, &item.SalePrice, &item.Active, &item.CreatedAt, &item.UpdatedAt,
		}
		if err := rows.Scan(append(dest, pr.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		item.Pricing, err = pr.value()
		if err != nil {
			return nil, fmt.Errorf("decode pricing for product %d: %w", item.ID, err)
		}
		products = append(products, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// GetProduct loads one product by id.
func (s *Store) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, sku, category, sale_price, active, created_at, updated_at
		FROM products
		WHERE id = ?
	`), id).Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.SalePrice, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product %d: %w", id, err)
	}
	return p, nil
}

// CreateProduct inserts a product and returns its id.
func (s *Store) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO products (name, sku, category, sale_price, active)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), p.Name, p.SKU, p.Category, p.SalePrice, p.Active).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// UpdateProduct overwrites the editable fields of an existing product.
func (s *Store) UpdateProduct(ctx context.Context, p Product) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE products
		SET
			name = ?,
			sku = ?,
			category = ?,
			sale_price = ?,
			active = ?,
			updated_at = ?
		WHERE id = ?
	`), p.Name, p.SKU, p.Category, p.SalePrice, p.Active, time.Now().UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return expectAffected(result)
}

// DeleteProduct removes a product together with its stored pricing.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return expectAffected(result)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes query match literally inside a LIKE pattern escaped with a backslash.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
