package workflow

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/granformato/pedidos_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UnitLengthCm is the inventory counting unit for continuous-length
// materials: one whole roll-unit = 1 m = 100 cm.
const UnitLengthCm = 100

// minAdjustCm: deltas below this are measurement noise, not consumption.
const minAdjustCm = 0.01

// InsufficientStockError is raised when a consumption delta exceeds the
// available tracked length for a material. It is raised before any
// mutation: the caller's transaction can roll back to an untouched ledger.
type InsufficientStockError struct {
	MaterialId      string
	InventoryItemId int
	RequestedCm     int
	AvailableCm     int
	RemainderCm     int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for material %q (inventory_item_id=%d): requested %d cm, available %d cm (remainder %d cm)",
		e.MaterialId, e.InventoryItemId, e.RequestedCm, e.AvailableCm, e.RemainderCm,
	)
}

func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// splitConsumption converts a consumed length plus the carried remainder
// into whole units to decrement and the new remainder.
func splitConsumption(remainderCm, deltaCm int) (wholeUnits, newRemainderCm int) {
	totalConsumed := remainderCm + deltaCm
	return totalConsumed / UnitLengthCm, totalConsumed % UnitLengthCm
}

// splitReturn converts a returned (negative) length plus the carried
// remainder into whole units to increment and the new remainder. The loop
// guarantees the final remainder is >= 0; the modulo is a defensive
// re-normalization into [0, UnitLengthCm).
func splitReturn(remainderCm, deltaCm int) (unitsToReturn, newRemainderCm int) {
	remainder := remainderCm + deltaCm
	for remainder < 0 {
		remainder += UnitLengthCm
		unitsToReturn++
	}
	remainder = ((remainder % UnitLengthCm) + UnitLengthCm) % UnitLengthCm
	return unitsToReturn, remainder
}

// AdjustMaterialStock applies a signed continuous-length delta (cm) to one
// material's inventory: positive consumes, negative returns. Whole-unit
// changes go to InventoryItem.quantity under conditional updates; the
// sub-unit leftover is carried in MaterialRemainder so no fractional
// consumption is ever lost or double-counted across pedidos.
//
// Must run inside the caller's transaction: on InsufficientStockError (the
// only declared failure) the rollback leaves the ledger untouched.
//
// Soft-fails (no-op) when the material cannot be resolved to inventory:
// stock is only tracked for materials that exist in inventory. Logged
// distinctly so misconfiguration is visible.
func AdjustMaterialStock(tx *gorm.DB, logger *logrus.Logger, materialId string, deltaLengthCm float64) error {
	if strings.TrimSpace(materialId) == "" {
		return nil
	}
	if math.Abs(deltaLengthCm) < minAdjustCm {
		return nil
	}

	resolved, err := models.ResolveMaterial(tx, materialId)
	if err != nil {
		return err
	}
	if resolved == nil || resolved.Item == nil {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"module":      "workflow",
				"funcName":    "AdjustMaterialStock",
				"material_id": materialId,
				"delta_cm":    deltaLengthCm,
			}).Warn("material not tracked in inventory; stock left unadjusted")
		}
		return nil
	}

	deltaCm := int(math.Round(deltaLengthCm))
	if deltaCm == 0 {
		return nil
	}

	itemId := resolved.Item.ID
	if err := AcquireMaterialLock(tx, itemId); err != nil {
		return err
	}
	defer ReleaseMaterialLock(tx, itemId)

	remainder, err := models.FirstOrCreateMaterialRemainder(tx, itemId)
	if err != nil {
		return err
	}
	item, err := models.LockInventoryItem(tx, itemId)
	if err != nil {
		return err
	}

	var newRemainderCm int
	if deltaCm > 0 {
		availableCm := item.Quantity*UnitLengthCm - remainder.RemainderCm
		if deltaCm > availableCm {
			return &InsufficientStockError{
				MaterialId:      materialId,
				InventoryItemId: itemId,
				RequestedCm:     deltaCm,
				AvailableCm:     availableCm,
				RemainderCm:     remainder.RemainderCm,
			}
		}
		wholeUnits, rem := splitConsumption(remainder.RemainderCm, deltaCm)
		newRemainderCm = rem
		if wholeUnits > 0 {
			// The conditional update guards the race between the
			// availability check above and this write.
			applied, err := models.ConsumeWholeUnits(tx, itemId, wholeUnits)
			if err != nil {
				return err
			}
			if !applied {
				return &InsufficientStockError{
					MaterialId:      materialId,
					InventoryItemId: itemId,
					RequestedCm:     deltaCm,
					AvailableCm:     availableCm,
					RemainderCm:     remainder.RemainderCm,
				}
			}
		}
	} else {
		unitsToReturn, rem := splitReturn(remainder.RemainderCm, deltaCm)
		newRemainderCm = rem
		if unitsToReturn > 0 {
			if err := models.ReturnWholeUnits(tx, itemId, unitsToReturn); err != nil {
				return err
			}
		}
	}

	if err := models.UpdateMaterialRemainder(tx, itemId, newRemainderCm); err != nil {
		return err
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"module":            "workflow",
			"funcName":          "AdjustMaterialStock",
			"material_id":       materialId,
			"inventory_item_id": itemId,
			"delta_cm":          deltaCm,
			"remainder_cm":      newRemainderCm,
		}).Info("material stock adjusted")
	}
	return nil
}
