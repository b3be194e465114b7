package seed

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/quickdeals/pkg/db/models"
)

// Counts is the row count of each pricing table.
type Counts struct {
	Platforms int64 `json:"platforms"`
	Products  int64 `json:"products"`
	Prices    int64 `json:"prices"`
}

// Repository persists the pricing tables through a GORM handle.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a pricing repository bound to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return r.db
	}
	return r.db.WithContext(ctx)
}

// EnsurePlatforms inserts any missing platform names and returns the id of
// every requested name.
func (r *Repository) EnsurePlatforms(ctx context.Context, names []string) (map[string]uint, error) {
	rows := make([]models.Platform, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.Platform{Name: name})
	}
	if err := r.insertIgnore(ctx, &rows); err != nil {
		return nil, fmt.Errorf("insert platforms: %w", err)
	}

	var stored []models.Platform
	if err := r.conn(ctx).Where("name IN ?", names).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("load platforms: %w", err)
	}
	ids := make(map[string]uint, len(stored))
	for _, p := range stored {
		ids[p.Name] = p.ID
	}
	return ids, checkAllPresent("platform", names, ids)
}

// EnsureProducts inserts any missing product names and returns the id of
// every requested name.
func (r *Repository) EnsureProducts(ctx context.Context, names []string) (map[string]uint, error) {
	rows := make([]models.Product, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.Product{Name: name})
	}
	if err := r.insertIgnore(ctx, &rows); err != nil {
		return nil, fmt.Errorf("insert products: %w", err)
	}

	var stored []models.Product
	if err := r.conn(ctx).Where("name IN ?", names).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	ids := make(map[string]uint, len(stored))
	for _, p := range stored {
		ids[p.Name] = p.ID
	}
	return ids, checkAllPresent("product", names, ids)
}

// ReplacePrices deletes every product_price row and inserts rows in its place.
func (r *Repository) ReplacePrices(ctx context.Context, rows []models.ProductPrice) error {
	tx := r.conn(ctx)
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ProductPrice{}).Error; err != nil {
		return fmt.Errorf("delete prices: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
		return fmt.Errorf("insert prices: %w", err)
	}
	return nil
}

// Counts returns the current row count of each table.
func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	tx := r.conn(ctx)
	if err := tx.Model(&models.Platform{}).Count(&c.Platforms).Error; err != nil {
		return c, fmt.Errorf("count platforms: %w", err)
	}
	if err := tx.Model(&models.Product{}).Count(&c.Products).Error; err != nil {
		return c, fmt.Errorf("count products: %w", err)
	}
	if err := tx.Model(&models.ProductPrice{}).Count(&c.Prices).Error; err != nil {
		return c, fmt.Errorf("count prices: %w", err)
	}
	return c, nil
}

// ListPrices returns every price row with its product and platform loaded,
// ordered by product then platform name.
func (r *Repository) ListPrices(ctx context.Context) ([]models.ProductPrice, error) {
	var rows []models.ProductPrice
	err := r.conn(ctx).
		Joins("Product").
		Joins("Platform").
		Order("Product.name, Platform.name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return rows, nil
}

func (r *Repository) insertIgnore(ctx context.Context, rows any) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(rows).Error
}

func checkAllPresent(kind string, names []string, ids map[string]uint) error {
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			return fmt.Errorf("%s %q missing after insert", kind, name)
		}
	}
	return nil
}
