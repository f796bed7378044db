package models

import (
	"context"
	"time"

	"github.com/granformato/pedidos_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryItem is a stocked material sold by continuous length.
// Quantity counts whole roll-units (1 unit = 1 m = 100 cm of material);
// the sub-unit leftover lives in MaterialRemainder.
//
// Quantity is mutated only through the guarded conditional updates below,
// never through a blind read-modify-write.
type InventoryItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Code          string          `gorm:"uniqueIndex;size:100;not null" json:"code"`
	Name          string          `gorm:"index;size:255;not null" json:"name"`
	Quantity      int             `gorm:"not null;default:0" json:"quantity"`
	PricePerMeter decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_per_meter"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	WidthCm       float64         `gorm:"default:0" json:"width_cm"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetInventoryItems(ctx context.Context) ([]*InventoryItem, error) {
	var items []*InventoryItem
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindInventoryItemByIdentifier looks up an item whose code or name equals
// any of the given candidate strings. Used by the material resolver.
func FindInventoryItemByIdentifier(tx *gorm.DB, candidates []string) (*InventoryItem, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var item InventoryItem
	err := tx.Where("code IN (?) OR name IN (?)", candidates, candidates).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LockInventoryItem reloads the item inside the caller's transaction with a
// row lock, so the availability check and the remainder math read a stable
// quantity.
func LockInventoryItem(tx *gorm.DB, id int) (*InventoryItem, error) {
	var item InventoryItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ConsumeWholeUnits decrements quantity by units, but only when the row
// still holds at least that many units at mutation time. Returns false when
// the conditional update matched no row: the caller must treat that as
// insufficient stock, not retry blindly.
func ConsumeWholeUnits(tx *gorm.DB, id int, units int) (bool, error) {
	if units <= 0 {
		return true, nil
	}
	res := tx.Model(&InventoryItem{}).
		Where("id = ? AND quantity >= ?", id, units).
		Update("quantity", gorm.Expr("quantity - ?", units))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReturnWholeUnits increments quantity by units. Increments cannot
// overdraw, so no predicate beyond the id is needed.
func ReturnWholeUnits(tx *gorm.DB, id int, units int) error {
	if units <= 0 {
		return nil
	}
	return tx.Model(&InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", units)).Error
}
