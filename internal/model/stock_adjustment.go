package model

import "github.com/google/uuid"

type AdjustmentSource string

const (
	AdjustmentOpname AdjustmentSource = "opname"
	AdjustmentManual AdjustmentSource = "manual"
)

// StockAdjustment logs every write to Product.CurrentStock
type StockAdjustment struct {
	BaseModel
	TeamID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"team_id"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product         `json:"product,omitempty"`
	SessionID     *uuid.UUID       `gorm:"type:uuid;index" json:"session_id,omitempty"`
	Source        AdjustmentSource `gorm:"type:varchar(10);not null" json:"source"`
	PreviousStock int              `gorm:"not null" json:"previous_stock"`
	NewStock      int              `gorm:"not null" json:"new_stock"`
	Delta         int              `gorm:"not null" json:"delta"` // NewStock - PreviousStock
}
