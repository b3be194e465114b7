package models

// Platform is a quick-commerce storefront (Blinkit, Zepto, ...).
type Platform struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

func (Platform) TableName() string { return "platform" }
