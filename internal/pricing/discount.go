package pricing

import "math"

// maxIdealDiscount caps the recommended promotional discount.
const maxIdealDiscount = 40.0

// Discounts describes how much room a computed price leaves for promotions and acquisition spend.
type Discounts struct {
	MaxDiscountPercent   float64 `json:"max_discount_percent"`
	IdealDiscountPercent float64 `json:"ideal_discount_percent"`
	MaxAcceptableCAC     float64 `json:"max_acceptable_cac"`
}

// Analyze derives break-even discount figures from a computed result.
// The ideal discount keeps half of the profit margin and never exceeds 40%.
func Analyze(r Result, marginPercent float64) Discounts {
	headroom := r.FinalPrice - r.TotalCosts()
	if r.FinalPrice <= 0 {
		return Discounts{MaxAcceptableCAC: math.Max(headroom, 0)}
	}

	maxDiscount := headroom / r.FinalPrice * 100
	ideal := maxDiscount - amount(marginPercent)/2

	return Discounts{
		MaxDiscountPercent:   maxDiscount,
		IdealDiscountPercent: clamp(ideal, 0, maxIdealDiscount),
		MaxAcceptableCAC:     headroom,
	}
}

// RealizedMargin returns the cost-plus margin percentage actually earned when a unit sells at salePrice.
// It is negative when salePrice does not cover TotalCosts.
func RealizedMargin(r Result, salePrice float64) float64 {
	costs := r.TotalCosts()
	if costs <= 0 {
		return 0
	}
	return (salePrice - costs) / costs * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
