package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickdeals/pkg/enums"
)

// ProductPrice is one (product, platform) price point. The schema does not
// enforce pair uniqueness; the seeder writes the cross-product exactly once.
type ProductPrice struct {
	ID              uint               `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID       uint               `gorm:"column:product_id;not null"`
	PlatformID      uint               `gorm:"column:platform_id;not null"`
	Price           decimal.Decimal    `gorm:"column:price;type:real;not null"`
	DiscountPercent int                `gorm:"column:discount_percent;not null"`
	Availability    enums.Availability `gorm:"column:availability;not null"`
	LastUpdated     time.Time          `gorm:"column:last_updated;autoCreateTime"`

	Product  *Product  `gorm:"foreignKey:ProductID"`
	Platform *Platform `gorm:"foreignKey:PlatformID"`
}

func (ProductPrice) TableName() string { return "product_price" }
