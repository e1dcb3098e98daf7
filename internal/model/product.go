package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LocationType string

const (
	LocationToko   LocationType = "toko"
	LocationGudang LocationType = "gudang"
)

func (l LocationType) Valid() bool {
	return l == LocationToko || l == LocationGudang
}

type Product struct {
	BaseModel
	TeamID       uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_team_sku" json:"team_id"`
	SKU          string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_team_sku" json:"sku"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Category     string       `gorm:"type:varchar(100)" json:"category"`
	SubCategory  string       `gorm:"type:varchar(100)" json:"sub_category"`
	CurrentStock int          `gorm:"default:0" json:"current_stock"`
	LocationType LocationType `gorm:"type:varchar(10);not null;index" json:"location_type"`

	// Relasi
	Units []ProductUnit `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"units"`
}

// ProductUnit is one countable packaging of a product (Dus, Pack, Pcs...)
type ProductUnit struct {
	BaseModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	UnitName         string          `gorm:"type:varchar(30);not null" json:"unit_name"`
	ConversionToBase decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"conversion_to_base"`
	BaseUnit         string          `gorm:"type:varchar(30)" json:"base_unit"`
	SortOrder        int             `gorm:"default:0" json:"sort_order"`
}
