package pricing

import "math"

// DefaultFixedCosts is the per-unit overhead allocation used when a seller has not configured one.
const DefaultFixedCosts = 35.0

// MaxAmount bounds every monetary input. Compute caps larger values so results stay finite.
const MaxAmount = 1e9

// MarketingMode selects how CostInputs.MarketingCost is interpreted.
type MarketingMode string

const (
	MarketingFixed      MarketingMode = "fixed"
	MarketingPercentage MarketingMode = "percentage"
)

// CostInputs represents the raw per-unit cost entries of one pricing calculation.
type CostInputs struct {
	FabricMainCost      float64       `json:"fabric_main_cost"`
	FabricSecondaryCost float64       `json:"fabric_secondary_cost"`
	TurhaMainCost       float64       `json:"turha_main_cost"`
	TurhaSecondaryCost  float64       `json:"turha_secondary_cost"`
	EmbroideryCost      float64       `json:"embroidery_cost"`
	TailoringCost       float64       `json:"tailoring_cost"`
	PackagingCost       float64       `json:"packaging_cost"`
	DeliveryCost        float64       `json:"delivery_cost"`
	ExtraExpenses       float64       `json:"extra_expenses"`
	FixedCosts          float64       `json:"fixed_costs"`
	MarketingCost       float64       `json:"marketing_cost"`
	MarketingMode       MarketingMode `json:"marketing_mode"`
	ProfitMarginPercent float64       `json:"profit_margin_percent"`

	HasSecondaryFabric bool `json:"has_secondary_fabric"`
	HasTurha           bool `json:"has_turha"`
	HasSecondaryTurha  bool `json:"has_secondary_turha"`
	HasEmbroidery      bool `json:"has_embroidery"`
}

// Policy holds the payment-gateway fee schedule and display rounding applied on top of costs.
type Policy struct {
	PaymentFlatFee    float64 `json:"payment_flat_fee"`
	PaymentFeeRate    float64 `json:"payment_fee_rate"`
	RoundingIncrement float64 `json:"rounding_increment"`
}

// DefaultPolicy returns the blended installment-gateway schedule: 1.50 flat plus 6.99%, rounded to 5.
func DefaultPolicy() Policy {
	return Policy{
		PaymentFlatFee:    1.50,
		PaymentFeeRate:    0.0699,
		RoundingIncrement: 5,
	}
}

// Result contains every line of the computed price breakdown.
type Result struct {
	DirectCosts        float64 `json:"direct_costs"`
	FixedCosts         float64 `json:"fixed_costs"`
	MarketingCost      float64 `json:"marketing_cost"`
	ProfitAmount       float64 `json:"profit_amount"`
	PriceBeforeFees    float64 `json:"price_before_fees"`
	PaymentGatewayFees float64 `json:"payment_gateway_fees"`
	FinalPrice         float64 `json:"final_price"`
	SuggestedPrice     float64 `json:"suggested_price"`
}

// TotalCosts is everything the seller pays out per unit: the final price minus the profit.
func (r Result) TotalCosts() float64 {
	return r.DirectCosts + r.MarketingCost + r.FixedCosts + r.PaymentGatewayFees
}

// Compute derives the full price breakdown from cost inputs and a fee policy.
//
// Profit is a cost-plus markup on the loaded cost (direct + marketing + fixed).
// The gateway fee is charged on the pre-fee price and is not grossed up.
// Negative or non-finite inputs count as zero and amounts above MaxAmount count as MaxAmount.
func Compute(in CostInputs, p Policy) Result {
	direct := DirectCosts(in)
	fixed := amount(in.FixedCosts)
	marketing := resolveMarketing(in, direct)

	loaded := direct + marketing + fixed
	profit := loaded * (amount(in.ProfitMarginPercent) / 100.0)
	beforeFees := loaded + profit

	fees := amount(p.PaymentFlatFee) + beforeFees*amount(p.PaymentFeeRate)
	final := beforeFees + fees

	return Result{
		DirectCosts:        direct,
		FixedCosts:         fixed,
		MarketingCost:      marketing,
		ProfitAmount:       profit,
		PriceBeforeFees:    beforeFees,
		PaymentGatewayFees: fees,
		FinalPrice:         final,
		SuggestedPrice:     RoundUp(final, p.RoundingIncrement),
	}
}

// DirectCosts sums the per-unit variable costs. Disabled optional items contribute zero.
func DirectCosts(in CostInputs) float64 {
	total := amount(in.FabricMainCost)
	if in.HasSecondaryFabric {
		total += amount(in.FabricSecondaryCost)
	}
	if in.HasTurha {
		total += amount(in.TurhaMainCost)
	}
	if in.HasSecondaryTurha {
		total += amount(in.TurhaSecondaryCost)
	}
	if in.HasEmbroidery {
		total += amount(in.EmbroideryCost)
	}
	total += amount(in.TailoringCost)
	total += amount(in.PackagingCost)
	total += amount(in.DeliveryCost)
	total += amount(in.ExtraExpenses)
	return total
}

func resolveMarketing(in CostInputs, direct float64) float64 {
	if in.MarketingMode == MarketingPercentage {
		return direct * (amount(in.MarketingCost) / 100.0)
	}
	return amount(in.MarketingCost)
}

// RoundUp rounds value up to the next multiple of increment. A non-positive increment leaves value as is.
func RoundUp(value, increment float64) float64 {
	if increment <= 0 || math.IsNaN(increment) || math.IsInf(increment, 0) {
		return value
	}
	return math.Ceil(value/increment) * increment
}

func amount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Min(v, MaxAmount)
}
