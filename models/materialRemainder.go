package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialRemainder holds the sub-unit leftover length for one material:
// the centimeters not yet converted into a whole-unit quantity change.
// Invariant: 0 <= RemainderCm < workflow.UnitLengthCm after every
// successful ledger call.
type MaterialRemainder struct {
	ID              int       `gorm:"primary_key" json:"id"`
	InventoryItemId int       `gorm:"uniqueIndex;not null" json:"inventory_item_id"`
	RemainderCm     int       `gorm:"not null;default:0" json:"remainder_cm"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FirstOrCreateMaterialRemainder loads the remainder row for a material
// under a row lock, creating it lazily on first ledger touch.
func FirstOrCreateMaterialRemainder(tx *gorm.DB, inventoryItemId int) (*MaterialRemainder, error) {
	remainder := MaterialRemainder{
		InventoryItemId: inventoryItemId,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("inventory_item_id = ?", inventoryItemId).
		FirstOrCreate(&remainder)
	if result.Error != nil {
		return nil, result.Error
	}
	return &remainder, nil
}

func UpdateMaterialRemainder(tx *gorm.DB, inventoryItemId int, remainderCm int) error {
	return tx.Model(&MaterialRemainder{}).
		Where("inventory_item_id = ?", inventoryItemId).
		Update("remainder_cm", remainderCm).Error
}
