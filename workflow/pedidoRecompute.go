package workflow

import (
	"math"

	"github.com/granformato/pedidos_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PedidoAggregates is the recomputed file totals of a pedido.
type PedidoAggregates struct {
	AreaCm2  float64         `json:"area_cm2"`
	LengthCm float64         `json:"length_cm"`
	Price    decimal.Decimal `json:"price"`
}

func coerceFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// attachmentLengthCm prefers the attachment's own recorded length and
// derives one from area and effective width only when it is missing.
func attachmentLengthCm(recordedLengthCm, areaCm2 float64, effectiveWidthCm *float64) float64 {
	if recordedLengthCm > 0 {
		return coerceFinite(recordedLengthCm)
	}
	if effectiveWidthCm != nil && *effectiveWidthCm > 0 {
		return coerceFinite(areaCm2 / *effectiveWidthCm)
	}
	return 0
}

// pedidoLengthDeltaCm is the incremental ledger delta of a recompute:
// new total length versus the previously recorded baseline. A second
// recompute with unchanged attachments yields 0, which is what makes the
// recompute idempotent with respect to the stock ledger.
func pedidoLengthDeltaCm(newLengthCm, baselineLengthCm float64) float64 {
	return newLengthCm - baselineLengthCm
}

// RecomputePedidoAggregates recomputes a pedido's total area/length/price
// from its current set of processed attachments and applies only the
// incremental stock delta versus the last recorded total.
//
// Runs inside the caller's transaction. An InsufficientStockError from the
// ledger propagates out so the whole recompute (including attachment rows
// created in the same transaction) rolls back.
//
// Returns nil when the pedido does not exist.
func RecomputePedidoAggregates(tx *gorm.DB, logger *logrus.Logger, pedidoId int) (*PedidoAggregates, error) {
	if err := AcquirePedidoLock(tx, pedidoId); err != nil {
		return nil, err
	}
	defer ReleasePedidoLock(tx, pedidoId)

	pedido, err := models.LockPedido(tx, pedidoId)
	if err != nil {
		return nil, err
	}
	if pedido == nil {
		return nil, nil
	}

	attachments, err := models.GetAttachmentsByPedido(tx, pedidoId)
	if err != nil {
		return nil, err
	}

	baselineLengthCm := pedido.FilesTotalLengthCm
	effectiveWidthCm := models.EffectiveMaterialWidth(pedido.MaterialWidthCm, pedido.MaterialId)

	var totalAreaCm2, totalLengthCm float64
	for _, a := range attachments {
		totalAreaCm2 += coerceFinite(a.AreaCm2)
		totalLengthCm += attachmentLengthCm(a.LengthCm, a.AreaCm2, effectiveWidthCm)
	}

	resolved, err := models.ResolveMaterial(tx, pedido.MaterialId)
	if err != nil {
		return nil, err
	}

	// Price only when the material resolves and a width is known; otherwise
	// keep whatever was stored before.
	price := pedido.FilesTotalPrice
	if resolved.IsValid() && effectiveWidthCm != nil && totalLengthCm > 0 {
		pricePerMeter := decimal.Zero
		if resolved.Item != nil {
			pricePerMeter = resolved.Item.PricePerMeter
		} else if resolved.Preset != nil {
			pricePerMeter = resolved.Preset.PricePerMeter
		}
		if pricePerMeter.IsPositive() {
			price = decimal.NewFromFloat(totalLengthCm).
				Div(decimal.NewFromInt(UnitLengthCm)).
				Mul(pricePerMeter).
				Round(0)
		}
	}

	if err := models.UpdatePedidoFileTotals(tx, pedidoId, totalAreaCm2, totalLengthCm, price); err != nil {
		return nil, err
	}

	// First-time pricing also sets the pedido's headline totals.
	if pedido.FilesTotalPrice.IsZero() && price.IsPositive() {
		breakdown := ComputeTaxBreakdown(price, PedidoTaxRate())
		if err := models.SetPedidoHeadlineTotals(tx, pedidoId, breakdown.Subtotal, breakdown.Tax, breakdown.Total); err != nil {
			return nil, err
		}
	}

	deltaCm := pedidoLengthDeltaCm(totalLengthCm, baselineLengthCm)
	if math.Abs(deltaCm) >= minAdjustCm {
		if err := AdjustMaterialStock(tx, logger, pedido.MaterialId, deltaCm); err != nil {
			return nil, err
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"module":      "workflow",
			"funcName":    "RecomputePedidoAggregates",
			"pedido_id":   pedidoId,
			"area_cm2":    totalAreaCm2,
			"length_cm":   totalLengthCm,
			"baseline_cm": baselineLengthCm,
			"delta_cm":    deltaCm,
		}).Info("pedido aggregates recomputed")
	}

	return &PedidoAggregates{
		AreaCm2:  totalAreaCm2,
		LengthCm: totalLengthCm,
		Price:    price,
	}, nil
}
