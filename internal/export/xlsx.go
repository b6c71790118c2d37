package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/pricebook/internal/catalog"
	"github.com/Simplici0/pricebook/internal/pricing"
)

// SheetName is the worksheet holding the priced catalog.
const SheetName = "Pricing"

var header = []any{
	"product_id",
	"name",
	"sku",
	"category",
	"payment_method",
	"direct_costs",
	"fixed_costs",
	"marketing_cost",
	"profit_amount",
	"price_before_fees",
	"payment_gateway_fees",
	"final_price",
	"suggested_price",
	"sale_price",
	"realized_margin_percent",
	"max_discount_percent",
	"ideal_discount_percent",
	"priced_at",
}

// PricingWorkbook writes the catalog with its stored pricing breakdown as an xlsx workbook.
// Products without a stored calculation keep their pricing columns empty.
func PricingWorkbook(w io.Writer, products []catalog.PricedProduct) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", i+2, err)
		}
		row := productRow(p)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write product %d: %w", p.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func productRow(p catalog.PricedProduct) []any {
	row := []any{p.ID, p.Name, p.SKU, p.Category}
	if p.Pricing == nil {
		return append(row, nil, nil, nil, nil, nil, nil, nil, nil, nil, p.SalePrice)
	}

	r := p.Pricing.Result
	discounts := pricing.Analyze(r, p.Pricing.Inputs.ProfitMarginPercent)

	var realized any
	if p.SalePrice > 0 {
		realized = pricing.RealizedMargin(r, p.SalePrice)
	}

	return append(row,
		p.Pricing.PaymentMethod,
		r.DirectCosts,
		r.FixedCosts,
		r.MarketingCost,
		r.ProfitAmount,
		r.PriceBeforeFees,
		r.PaymentGatewayFees,
		r.FinalPrice,
		r.SuggestedPrice,
		p.SalePrice,
		realized,
		discounts.MaxDiscountPercent,
		discounts.IdealDiscountPercent,
		p.Pricing.UpdatedAt.Format("2006-01-02 15:04"),
	)
}
