package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireMaterialLock serializes ledger mutations per material across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB transaction that will mutate the inventory row.
func AcquireMaterialLock(tx *gorm.DB, inventoryItemId int) error {
	lockName := fmt.Sprintf("material:%d", inventoryItemId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire material lock for inventory_item_id=%d", inventoryItemId)
	}
	return nil
}

func ReleaseMaterialLock(tx *gorm.DB, inventoryItemId int) {
	lockName := fmt.Sprintf("material:%d", inventoryItemId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquirePedidoLock serializes aggregate recomputes per pedido. Same
// connection-scoping caveat as AcquireMaterialLock.
func AcquirePedidoLock(tx *gorm.DB, pedidoId int) error {
	lockName := fmt.Sprintf("pedido:%d", pedidoId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire pedido lock for pedido_id=%d", pedidoId)
	}
	return nil
}

func ReleasePedidoLock(tx *gorm.DB, pedidoId int) {
	lockName := fmt.Sprintf("pedido:%d", pedidoId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
