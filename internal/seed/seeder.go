package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/db/models"
	"github.com/angelmondragon/quickdeals/pkg/enums"
	"github.com/angelmondragon/quickdeals/pkg/logger"
	"github.com/angelmondragon/quickdeals/pkg/migrate"
)

// Plan is the fixed catalog written into one database.
type Plan struct {
	Platforms []string
	Products  []string
}

// Options controls how prices are drawn.
type Options struct {
	PriceMin  float64
	PriceMax  float64
	Discounts []int

	// Rand overrides the generator; nil seeds from RandSeed or the clock.
	Rand     *rand.Rand
	RandSeed uint64
	Now      func() time.Time
}

// OptionsFromConfig maps the seed config section onto Options.
func OptionsFromConfig(cfg config.SeedConfig) Options {
	return Options{
		PriceMin:  cfg.PriceMin,
		PriceMax:  cfg.PriceMax,
		Discounts: append([]int(nil), cfg.Discounts...),
		RandSeed:  cfg.RandSeed,
	}
}

// Seeder applies the schema and regenerates prices.
type Seeder struct {
	opts Options
	logg *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New validates opts and returns a Seeder.
func New(opts Options, logg *logger.Logger) (*Seeder, error) {
	if opts.PriceMin < 0 || opts.PriceMax < opts.PriceMin {
		return nil, fmt.Errorf("invalid price range [%v, %v]", opts.PriceMin, opts.PriceMax)
	}
	if len(opts.Discounts) == 0 {
		return nil, fmt.Errorf("at least one discount is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logg == nil {
		logg = logger.Nop()
	}

	rng := opts.Rand
	if rng == nil {
		seed := opts.RandSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	return &Seeder{opts: opts, logg: logg, rng: rng}, nil
}

// Seed ensures the schema exists, inserts missing platforms and products, and
// replaces every price row with one fresh row per (product, platform) pair.
// The data step runs in a single transaction.
func (s *Seeder) Seed(ctx context.Context, client *db.Client, plan Plan) (Counts, error) {
	if len(plan.Platforms) == 0 || len(plan.Products) == 0 {
		return Counts{}, fmt.Errorf("seed plan needs at least one platform and one product")
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return Counts{}, fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := migrate.Up(ctx, sqlDB); err != nil {
		return Counts{}, err
	}

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		platformIDs, err := repo.EnsurePlatforms(ctx, plan.Platforms)
		if err != nil {
			return err
		}
		productIDs, err := repo.EnsureProducts(ctx, plan.Products)
		if err != nil {
			return err
		}

		rows := make([]models.ProductPrice, 0, len(plan.Products)*len(plan.Platforms))
		now := s.opts.Now().UTC()
		for _, product := range plan.Products {
			for _, platform := range plan.Platforms {
				price, discount, availability := s.draw()
				rows = append(rows, models.ProductPrice{
					ProductID:       productIDs[product],
					PlatformID:      platformIDs[platform],
					Price:           price,
					DiscountPercent: discount,
					Availability:    availability,
					LastUpdated:     now,
				})
			}
		}
		return repo.ReplacePrices(ctx, rows)
	})
	if err != nil {
		return Counts{}, fmt.Errorf("seeding prices: %w", err)
	}

	counts, err := NewRepository(client.DB()).Counts(ctx)
	if err != nil {
		return Counts{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"platforms": counts.Platforms,
		"products":  counts.Products,
		"prices":    counts.Prices,
	}), "database seeded")
	return counts, nil
}

func (s *Seeder) draw() (decimal.Decimal, int, enums.Availability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := s.opts.PriceMax - s.opts.PriceMin
	price := decimal.NewFromFloat(s.opts.PriceMin + s.rng.Float64()*span).Round(2)
	discount := s.opts.Discounts[s.rng.IntN(len(s.opts.Discounts))]
	states := enums.Availabilities()
	availability := states[s.rng.IntN(len(states))]
	return price, discount, availability
}
