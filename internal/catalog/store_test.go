package catalog

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/pricebook/internal/db"
	"github.com/Simplici0/pricebook/internal/migrations"
	"github.com/Simplici0/pricebook/internal/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(context.Background(), database, db.DriverSQLite))
	return NewStore(database, db.DriverSQLite)
}

func referenceInputs() pricing.CostInputs {
	return pricing.CostInputs{
		FabricMainCost:      100,
		TailoringCost:       50,
		PackagingCost:       10,
		FixedCosts:          pricing.DefaultFixedCosts,
		MarketingMode:       pricing.MarketingFixed,
		ProfitMarginPercent: 30,
	}
}

func TestProductCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateProduct(ctx, Product{Name: "Abaya Classic", SKU: "AB-001", Category: "abaya", Active: true})
	require.NoError(t, err)
	require.Positive(t, id)

	p, err := store.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Abaya Classic", p.Name)
	assert.True(t, p.Active)
	assert.False(t, p.CreatedAt.IsZero())

	p.Name = "Abaya Classic Black"
	p.SalePrice = 280
	p.Active = false
	require.NoError(t, store.UpdateProduct(ctx, p))

	p, err = store.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Abaya Classic Black", p.Name)
	assert.Equal(t, 280.0, p.SalePrice)
	assert.False(t, p.Active)

	require.NoError(t, store.DeleteProduct(ctx, id))
	_, err = store.GetProduct(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteProduct(ctx, id), ErrNotFound)
	assert.ErrorIs(t, store.UpdateProduct(ctx, Product{ID: 999, Name: "ghost"}), ErrNotFound)
}

func TestListProductsFiltersAndJoinsPricing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	abaya, err := store.CreateProduct(ctx, Product{Name: "Abaya Classic", SKU: "AB-001", Category: "abaya", Active: true})
	require.NoError(t, err)
	_, err = store.CreateProduct(ctx, Product{Name: "Linen Kaftan", SKU: "KF-010", Category: "kaftan", Active: true})
	require.NoError(t, err)

	policy := pricing.DefaultPolicy()
	require.NoError(t, store.SavePricing(ctx, ProductPricing{
		ProductID: abaya,
		Inputs:    referenceInputs(),
		Policy:    policy,
		Result:    pricing.Compute(referenceInputs(), policy),
	}))

	all, err := store.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := store.ListProducts(ctx, "abaya")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.NotNil(t, filtered[0].Pricing)
	assert.InDelta(t, 272.71965, filtered[0].Pricing.Result.FinalPrice, 1e-9)
	assert.Equal(t, 275.0, filtered[0].Pricing.Result.SuggestedPrice)

	bySKU, err := store.ListProducts(ctx, "kf-0")
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	assert.Equal(t, "Linen Kaftan", bySKU[0].Name)
	assert.Nil(t, bySKU[0].Pricing)
}

func TestSavePricingUpsertsOneRowPerProduct(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateProduct(ctx, Product{Name: "Abaya Classic", Active: true})
	require.NoError(t, err)

	policy := pricing.DefaultPolicy()
	in := referenceInputs()
	bnplID, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Installments", FlatFee: 1.5, FeeRate: 0.0699, Active: true})
	require.NoError(t, err)
	cardID, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Card", FeeRate: 0.029, Active: true})
	require.NoError(t, err)
	require.NoError(t, store.SavePricing(ctx, ProductPricing{ProductID: id, PaymentMethodID: bnplID, PaymentMethod: "Installments", Inputs: in, Policy: policy, Result: pricing.Compute(in, policy)}))

	in.HasTurha = true
	in.TurhaMainCost = 40
	in.ProfitMarginPercent = 40
	second := pricing.Compute(in, policy)
	require.NoError(t, store.SavePricing(ctx, ProductPricing{ProductID: id, PaymentMethodID: cardID, PaymentMethod: "Card", Inputs: in, Policy: policy, Result: second}))

	var rows int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM product_pricing WHERE product_id = ?`, id).Scan(&rows))
	assert.Equal(t, 1, rows)

	stored, err := store.GetPricing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Card", stored.PaymentMethod)
	assert.Equal(t, cardID, stored.PaymentMethodID)
	assert.Equal(t, in, stored.Inputs)
	assert.Equal(t, policy, stored.Policy)
	assert.InDelta(t, second.FinalPrice, stored.Result.FinalPrice, 1e-9)
	assert.Equal(t, second.SuggestedPrice, stored.Result.SuggestedPrice)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestStoredPricingKeepsPaymentMethodAcrossRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateProduct(ctx, Product{Name: "Abaya Classic", Active: true})
	require.NoError(t, err)
	methodID, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Card", FeeRate: 0.029, Active: true})
	require.NoError(t, err)

	policy := pricing.Policy{PaymentFeeRate: 0.029, RoundingIncrement: 5}
	require.NoError(t, store.SavePricing(ctx, ProductPricing{ProductID: id, PaymentMethodID: methodID, PaymentMethod: "Card", Inputs: referenceInputs(), Policy: policy, Result: pricing.Compute(referenceInputs(), policy)}))

	require.NoError(t, store.UpdatePaymentMethod(ctx, PaymentMethod{ID: methodID, Name: "Credit card", FeeRate: 0.029, Active: true}))

	stored, err := store.GetPricing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, methodID, stored.PaymentMethodID)

	products, err := store.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Pricing)
	assert.Equal(t, methodID, products[0].Pricing.PaymentMethodID)
}

func TestSavePricingRejectsNonFiniteResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateProduct(ctx, Product{Name: "Abaya Classic", Active: true})
	require.NoError(t, err)

	result := pricing.Compute(referenceInputs(), pricing.DefaultPolicy())
	result.FinalPrice = math.Inf(1)
	require.Error(t, store.SavePricing(ctx, ProductPricing{ProductID: id, Inputs: referenceInputs(), Policy: pricing.DefaultPolicy(), Result: result}))

	_, err = store.GetPricing(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProductsMatchesWildcardsLiterally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateProduct(ctx, Product{Name: "Abaya 100% silk", SKU: "AB_SILK", Active: true})
	require.NoError(t, err)
	_, err = store.CreateProduct(ctx, Product{Name: "Kaftan", SKU: "KF-010", Active: true})
	require.NoError(t, err)

	for query, want := range map[string]int{
		"%":      1,
		"_":      1,
		"100%":   1,
		"ab_s":   1,
		"kf_010": 0,
		`\`:     0,
	} {
		products, err := store.ListProducts(ctx, query)
		require.NoError(t, err)
		assert.Len(t, products, want, "query %q", query)
	}
}

func TestSavePricingUnknownProduct(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	err := store.SavePricing(context.Background(), ProductPricing{ProductID: 42, Policy: pricing.DefaultPolicy()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetPricing(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductCascadesPricing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateProduct(ctx, Product{Name: "Thobe", Active: true})
	require.NoError(t, err)
	policy := pricing.DefaultPolicy()
	require.NoError(t, store.SavePricing(ctx, ProductPricing{ProductID: id, Inputs: referenceInputs(), Policy: policy, Result: pricing.Compute(referenceInputs(), policy)}))

	require.NoError(t, store.DeleteProduct(ctx, id))

	_, err = store.GetPricing(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsAndPolicyResolution(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	fallback := pricing.DefaultPolicy()

	policy, method, err := store.PolicyFor(ctx, 0, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, policy)
	assert.Zero(t, method)

	cardID, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Card", FlatFee: 0, FeeRate: 0.029, Active: true})
	require.NoError(t, err)
	bnplID, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Installments", FlatFee: 1.5, FeeRate: 0.0699, Active: true})
	require.NoError(t, err)

	created, err := store.EnsureSettings(ctx, Settings{DefaultFixedCosts: 35, DefaultMarginPercent: 30, RoundingIncrement: 10, DefaultPaymentMethodID: bnplID, Currency: "SAR"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureSettings(ctx, Settings{DefaultFixedCosts: 1, RoundingIncrement: 1, Currency: "USD"})
	require.NoError(t, err)
	assert.False(t, created)

	st, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SAR", st.Currency)
	assert.Equal(t, bnplID, st.DefaultPaymentMethodID)
	assert.Equal(t, 35.0, st.DefaultInputs().FixedCosts)

	policy, method, err = store.PolicyFor(ctx, 0, fallback)
	require.NoError(t, err)
	assert.Equal(t, "Installments", method.Name)
	assert.Equal(t, bnplID, method.ID)
	assert.Equal(t, pricing.Policy{PaymentFlatFee: 1.5, PaymentFeeRate: 0.0699, RoundingIncrement: 10}, policy)

	policy, method, err = store.PolicyFor(ctx, cardID, fallback)
	require.NoError(t, err)
	assert.Equal(t, "Card", method.Name)
	assert.Equal(t, 0.029, policy.PaymentFeeRate)

	_, _, err = store.PolicyFor(ctx, 999, fallback)
	assert.ErrorIs(t, err, ErrNotFound)

	st.DefaultPaymentMethodID = 0
	st.RoundingIncrement = 5
	require.NoError(t, store.UpdateSettings(ctx, st))
	policy, method, err = store.PolicyFor(ctx, 0, fallback)
	require.NoError(t, err)
	assert.Zero(t, method.ID)
	assert.Equal(t, fallback, policy)
}

func TestPolicyForInactivePaymentMethod(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	fallback := pricing.DefaultPolicy()

	retiredID, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Retired", FlatFee: 9, FeeRate: 0.5, Active: false})
	require.NoError(t, err)
	_, err = store.EnsureSettings(ctx, Settings{DefaultFixedCosts: 35, DefaultMarginPercent: 30, RoundingIncrement: 5, DefaultPaymentMethodID: retiredID, Currency: "SAR"})
	require.NoError(t, err)

	_, _, err = store.PolicyFor(ctx, retiredID, fallback)
	assert.ErrorIs(t, err, ErrPaymentMethodInactive)

	policy, method, err := store.PolicyFor(ctx, 0, fallback)
	require.NoError(t, err)
	assert.Zero(t, method.ID)
	assert.Equal(t, fallback, policy)
}

func TestPaymentMethods(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Cash on delivery", FlatFee: 5, Active: true})
	require.NoError(t, err)
	_, err = store.CreatePaymentMethod(ctx, PaymentMethod{Name: "Bank transfer", Active: false})
	require.NoError(t, err)

	all, err := store.ListPaymentMethods(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bank transfer", all[0].Name)

	active, err := store.ListPaymentMethods(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)

	m := active[0]
	m.FeeRate = 0.01
	m.Active = false
	require.NoError(t, store.UpdatePaymentMethod(ctx, m))

	got, err := store.GetPaymentMethod(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.01, got.FeeRate)
	assert.False(t, got.Active)

	assert.ErrorIs(t, store.UpdatePaymentMethod(ctx, PaymentMethod{ID: 404, Name: "x"}), ErrNotFound)
	_, err = store.GetPaymentMethod(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
