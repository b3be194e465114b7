package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/db/models"
	"github.com/angelmondragon/quickdeals/pkg/enums"
)

func openTestDB(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "prices.db"), db.Options{MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestSeeder(t *testing.T) *Seeder {
	t.Helper()
	s, err := New(Options{
		PriceMin:  10,
		PriceMax:  100,
		Discounts: []int{0, 10, 20, 30},
		Rand:      rand.New(rand.NewPCG(1, 2)),
	}, nil)
	require.NoError(t, err)
	return s
}

var defaultPlan = Plan{
	Platforms: []string{"Blinkit", "Zepto", "Instamart", "BigBasket Now"},
	Products:  []string{"Onion", "Tomato", "Apple", "Milk"},
}

func TestSeed_CrossProductCompleteness(t *testing.T) {
	ctx := context.Background()
	client := openTestDB(t)

	counts, err := newTestSeeder(t).Seed(ctx, client, defaultPlan)
	require.NoError(t, err)
	assert.Equal(t, Counts{Platforms: 4, Products: 4, Prices: 16}, counts)

	rows, err := NewRepository(client.DB()).ListPrices(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 16)

	seen := map[string]int{}
	for _, row := range rows {
		require.NotNil(t, row.Product)
		require.NotNil(t, row.Platform)
		seen[row.Product.Name+"/"+row.Platform.Name]++
	}
	for _, product := range defaultPlan.Products {
		for _, platform := range defaultPlan.Platforms {
			assert.Equal(t, 1, seen[product+"/"+platform], "%s on %s", product, platform)
		}
	}
}

func TestSeed_ValuesWithinConfiguredDomains(t *testing.T) {
	ctx := context.Background()
	client := openTestDB(t)

	_, err := newTestSeeder(t).Seed(ctx, client, defaultPlan)
	require.NoError(t, err)

	var rows []models.ProductPrice
	require.NoError(t, client.DB().Find(&rows).Error)

	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(100)
	for _, row := range rows {
		assert.True(t, row.Price.GreaterThanOrEqual(lo), "price %s below range", row.Price)
		assert.True(t, row.Price.LessThanOrEqual(hi), "price %s above range", row.Price)
		assert.Contains(t, []int{0, 10, 20, 30}, row.DiscountPercent)
		assert.True(t, row.Availability.IsValid(), "availability %q", row.Availability)
		assert.False(t, row.LastUpdated.IsZero())
	}
}

func TestSeed_RerunKeepsCatalogAndReplacesPrices(t *testing.T) {
	ctx := context.Background()
	client := openTestDB(t)
	s := newTestSeeder(t)

	first, err := s.Seed(ctx, client, defaultPlan)
	require.NoError(t, err)

	var before []uint
	require.NoError(t, client.DB().Model(&models.ProductPrice{}).Pluck("id", &before).Error)

	second, err := s.Seed(ctx, client, defaultPlan)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var after []uint
	require.NoError(t, client.DB().Model(&models.ProductPrice{}).Pluck("id", &after).Error)
	require.Len(t, after, len(before))
	for _, id := range after {
		assert.NotContains(t, before, id, "price row %d survived reseed", id)
	}
}

func TestSeed_TwoPlatformsOneProduct(t *testing.T) {
	ctx := context.Background()
	client := openTestDB(t)

	_, err := newTestSeeder(t).Seed(ctx, client, Plan{
		Platforms: []string{"Blinkit", "Zepto"},
		Products:  []string{"Onion"},
	})
	require.NoError(t, err)

	type row struct {
		Platform        string
		Price           float64
		DiscountPercent int
		Availability    string
	}
	var rows []row
	err = client.DB().Raw(`
		SELECT pl.name AS platform, pp.price, pp.discount_percent, pp.availability
		FROM product_price pp
		JOIN product p ON p.id = pp.product_id
		JOIN platform pl ON pl.id = pp.platform_id
		WHERE p.name = ?
		ORDER BY pl.name`, "Onion").Scan(&rows).Error
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Blinkit", rows[0].Platform)
	assert.Equal(t, "Zepto", rows[1].Platform)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Price, 10.0)
		assert.LessOrEqual(t, r.Price, 100.0)
		assert.Contains(t, []int{0, 10, 20, 30}, r.DiscountPercent)
		assert.Contains(t, []string{"In Stock", "Out of Stock"}, r.Availability)
	}
}

func TestSeed_UsesInjectedClock(t *testing.T) {
	ctx := context.Background()
	client := openTestDB(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s, err := New(Options{
		PriceMin:  5,
		PriceMax:  5,
		Discounts: []int{10},
		Rand:      rand.New(rand.NewPCG(3, 4)),
		Now:       func() time.Time { return fixed },
	}, nil)
	require.NoError(t, err)

	_, err = s.Seed(ctx, client, Plan{Platforms: []string{"Zepto"}, Products: []string{"Milk"}})
	require.NoError(t, err)

	var row models.ProductPrice
	require.NoError(t, client.DB().First(&row).Error)
	assert.True(t, row.Price.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 10, row.DiscountPercent)
	assert.True(t, fixed.Equal(row.LastUpdated), "last_updated %v", row.LastUpdated)
}

func TestSeed_RejectsEmptyPlan(t *testing.T) {
	_, err := newTestSeeder(t).Seed(context.Background(), openTestDB(t), Plan{Platforms: []string{"Zepto"}})
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{PriceMin: 20, PriceMax: 10, Discounts: []int{0}}, nil)
	assert.Error(t, err)

	_, err = New(Options{PriceMin: 10, PriceMax: 20}, nil)
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.SeedConfig{PriceMin: 1, PriceMax: 2, Discounts: []int{5}, RandSeed: 42}
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 1.0, opts.PriceMin)
	assert.Equal(t, 2.0, opts.PriceMax)
	assert.Equal(t, uint64(42), opts.RandSeed)

	cfg.Discounts[0] = 99
	assert.Equal(t, []int{5}, opts.Discounts, fmt.Sprintf("options must not alias config: %v", opts.Discounts))
}

func TestDraw_CoversEveryAvailability(t *testing.T) {
	s := newTestSeeder(t)
	seen := map[enums.Availability]bool{}
	for i := 0; i < 200; i++ {
		_, _, a := s.draw()
		seen[a] = true
	}
	assert.Len(t, seen, 2)
}
