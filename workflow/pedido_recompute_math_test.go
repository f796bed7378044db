package workflow

import (
	"math"
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAttachmentLengthCm_PrefersRecordedLength(t *testing.T) {
	width := 57.0
	got := attachmentLengthCm(120, 6840, &width)
	if got != 120 {
		t.Fatalf("got %v, want recorded 120", got)
	}
}

func TestAttachmentLengthCm_DerivesFromArea(t *testing.T) {
	width := 57.0
	got := attachmentLengthCm(0, 6840, &width)
	if math.Abs(got-120) > 1e-9 {
		t.Fatalf("got %v, want 6840/57 = 120", got)
	}
}

func TestAttachmentLengthCm_NoWidth(t *testing.T) {
	if got := attachmentLengthCm(0, 6840, nil); got != 0 {
		t.Fatalf("got %v, want 0 without a width", got)
	}
	zero := 0.0
	if got := attachmentLengthCm(0, 6840, &zero); got != 0 {
		t.Fatalf("got %v, want 0 for zero width", got)
	}
}

func TestCoerceFinite(t *testing.T) {
	if got := coerceFinite(math.NaN()); got != 0 {
		t.Fatalf("NaN should coerce to 0, got %v", got)
	}
	if got := coerceFinite(math.Inf(1)); got != 0 {
		t.Fatalf("+Inf should coerce to 0, got %v", got)
	}
	if got := coerceFinite(12.5); got != 12.5 {
		t.Fatalf("finite values must pass through, got %v", got)
	}
}

func TestPedidoLengthDeltaCm_Idempotent(t *testing.T) {
	// First recompute from a zero baseline applies the full length; a
	// second recompute with the same total must apply nothing.
	first := pedidoLengthDeltaCm(120, 0)
	if first != 120 {
		t.Fatalf("first delta = %v, want 120", first)
	}
	second := pedidoLengthDeltaCm(120, 120)
	if second != 0 {
		t.Fatalf("second delta = %v, want 0", second)
	}
	// Removing an attachment yields a negative delta (a return).
	if got := pedidoLengthDeltaCm(90, 120); got != -30 {
		t.Fatalf("got %v, want -30", got)
	}
}

func TestComputeTaxBreakdown(t *testing.T) {
	breakdown := ComputeTaxBreakdown(decimal.NewFromInt(121), decimal.NewFromInt(21))
	if !breakdown.Subtotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("subtotal = %s, want 100", breakdown.Subtotal)
	}
	if !breakdown.Tax.Equal(decimal.NewFromInt(21)) {
		t.Fatalf("tax = %s, want 21", breakdown.Tax)
	}
	if !breakdown.Subtotal.Add(breakdown.Tax).Equal(breakdown.Total) {
		t.Fatal("subtotal + tax must equal total")
	}
}

func TestComputeTaxBreakdown_SumsToTotal(t *testing.T) {
	rate := decimal.NewFromInt(21)
	for _, cents := range []int64{1, 99, 100, 12345, 999999} {
		total := decimal.New(cents, -2)
		b := ComputeTaxBreakdown(total, rate)
		if !b.Subtotal.Add(b.Tax).Equal(total) {
			t.Fatalf("total %s: subtotal %s + tax %s != total", total, b.Subtotal, b.Tax)
		}
	}
}

func TestPedidoTaxRate_EnvOverride(t *testing.T) {
	t.Setenv("PEDIDOS_IVA_RATE", "10.5")
	if got := PedidoTaxRate(); !got.Equal(decimal.NewFromFloat(10.5)) {
		t.Fatalf("got %s, want 10.5", got)
	}

	t.Setenv("PEDIDOS_IVA_RATE", "not-a-number")
	if got := PedidoTaxRate(); !got.Equal(decimal.NewFromInt(21)) {
		t.Fatalf("invalid override should fall back to 21, got %s", got)
	}

	os.Unsetenv("PEDIDOS_IVA_RATE")
	if got := PedidoTaxRate(); !got.Equal(decimal.NewFromInt(21)) {
		t.Fatalf("default rate should be 21, got %s", got)
	}
}
