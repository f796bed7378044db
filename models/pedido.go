package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Pedido is the order record as seen by this core: material context plus
// the last-known file totals. The totals are the baseline for the delta
// computation on the next aggregate recompute.
//
// Catalog/cart/payment fields live with the HTTP layer and are not
// modeled here.
type Pedido struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	ClienteNombre      string          `gorm:"size:255" json:"cliente_nombre"`
	ClienteEmail       string          `gorm:"index;size:255" json:"cliente_email"`
	MaterialId         string          `gorm:"size:100" json:"material_id"`
	MaterialWidthCm    *float64        `json:"material_width_cm"`
	FilesTotalAreaCm2  float64         `gorm:"default:0" json:"files_total_area_cm2"`
	FilesTotalLengthCm float64         `gorm:"default:0" json:"files_total_length_cm"`
	FilesTotalPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"files_total_price"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	SubtotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal_amount"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Attachments []*Attachment `gorm:"foreignKey:PedidoId" json:"attachments,omitempty"`
}

// LockPedido loads the pedido with a row lock inside the caller's
// transaction. The recompute reads the baseline length and writes the new
// totals on the same row; the lock keeps that read-then-write stable.
func LockPedido(tx *gorm.DB, id int) (*Pedido, error) {
	var pedido Pedido
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&pedido).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pedido, nil
}

// GetPedido is the lock-free read used outside transactions (worker
// context loading, HTTP reads). Returns nil when the pedido is missing.
func GetPedido(db *gorm.DB, id int) (*Pedido, error) {
	var pedido Pedido
	err := db.Where("id = ?", id).First(&pedido).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pedido, nil
}

// ExtractMaterialIdFromPedido returns the pedido's material identifier,
// preferring the pedido's own recorded value over the payload fallback.
// Called by the order-creation handlers and the file worker.
func ExtractMaterialIdFromPedido(pedido *Pedido, fallback string) string {
	if pedido != nil && strings.TrimSpace(pedido.MaterialId) != "" {
		return pedido.MaterialId
	}
	return fallback
}

// ExtractMaterialWidthFromPedido returns the pedido's width override,
// preferring the pedido's own recorded value over the payload fallback.
func ExtractMaterialWidthFromPedido(pedido *Pedido, fallback *float64) *float64 {
	if pedido != nil && pedido.MaterialWidthCm != nil && *pedido.MaterialWidthCm > 0 {
		return pedido.MaterialWidthCm
	}
	if fallback != nil && *fallback > 0 {
		return fallback
	}
	return nil
}

// UpdatePedidoFileTotals persists the recomputed aggregate payload.
func UpdatePedidoFileTotals(tx *gorm.DB, id int, areaCm2 float64, lengthCm float64, price decimal.Decimal) error {
	return tx.Model(&Pedido{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"files_total_area_cm2":  areaCm2,
			"files_total_length_cm": lengthCm,
			"files_total_price":     price,
		}).Error
}

// SetPedidoHeadlineTotals sets the order-level totals when the recompute
// prices the pedido for the first time.
func SetPedidoHeadlineTotals(tx *gorm.DB, id int, subtotal, tax, total decimal.Decimal) error {
	return tx.Model(&Pedido{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subtotal_amount": subtotal,
			"tax_amount":      tax,
			"total_amount":    total,
		}).Error
}
