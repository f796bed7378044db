package workflow

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxBreakdown splits a tax-inclusive total into subtotal and tax.
type TaxBreakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTaxBreakdown derives the breakdown for a tax-inclusive total:
// subtotal = total / (100 + rate) * 100.
func ComputeTaxBreakdown(total decimal.Decimal, rate decimal.Decimal) TaxBreakdown {
	oneHundred := decimal.NewFromInt(100)
	subtotal := total.DivRound(rate.Add(oneHundred), 4).Mul(oneHundred).Round(2)
	return TaxBreakdown{
		Subtotal: subtotal,
		Tax:      total.Sub(subtotal),
		Total:    total,
	}
}

// PedidoTaxRate is the VAT rate (percent) applied when a recompute prices
// a pedido for the first time. Env override: PEDIDOS_IVA_RATE.
func PedidoTaxRate() decimal.Decimal {
	if v := strings.TrimSpace(os.Getenv("PEDIDOS_IVA_RATE")); v != "" {
		if rate, err := decimal.NewFromString(v); err == nil && !rate.IsNegative() {
			return rate
		}
	}
	return decimal.NewFromInt(21)
}
