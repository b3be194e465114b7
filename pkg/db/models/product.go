package models

// Product is a catalog item priced on every platform.
type Product struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

func (Product) TableName() string { return "product" }
