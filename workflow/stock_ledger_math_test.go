package workflow

import (
	"errors"
	"testing"
)

// NOTE: These tests are intentionally DB-free. They validate the remainder
// arithmetic the ledger applies inside its transaction; the end-to-end
// behavior against MySQL is covered by the docker-gated regression tests
// in models.

func TestSplitConsumption_WithinOneUnit(t *testing.T) {
	whole, rem := splitConsumption(0, 40)
	if whole != 0 || rem != 40 {
		t.Fatalf("got whole=%d rem=%d, want 0/40", whole, rem)
	}
}

func TestSplitConsumption_CrossesUnitBoundary(t *testing.T) {
	// 2 units on hand, consume 150 cm: one whole unit comes off, 50 cm carried.
	whole, rem := splitConsumption(0, 150)
	if whole != 1 || rem != 50 {
		t.Fatalf("got whole=%d rem=%d, want 1/50", whole, rem)
	}

	// Continuing: carried 50 cm plus 60 cm consumed is 110 cm -> one more
	// unit and 10 cm carried.
	whole, rem = splitConsumption(50, 60)
	if whole != 1 || rem != 10 {
		t.Fatalf("got whole=%d rem=%d, want 1/10", whole, rem)
	}
}

func TestSplitConsumption_ExactUnits(t *testing.T) {
	whole, rem := splitConsumption(0, 300)
	if whole != 3 || rem != 0 {
		t.Fatalf("got whole=%d rem=%d, want 3/0", whole, rem)
	}
}

func TestSplitReturn_WithinRemainder(t *testing.T) {
	units, rem := splitReturn(80, -30)
	if units != 0 || rem != 50 {
		t.Fatalf("got units=%d rem=%d, want 0/50", units, rem)
	}
}

func TestSplitReturn_CrossesUnitBoundary(t *testing.T) {
	// remainder 10, return 30: running remainder -20, normalize by one unit.
	units, rem := splitReturn(10, -30)
	if units != 1 || rem != 80 {
		t.Fatalf("got units=%d rem=%d, want 1/80", units, rem)
	}
}

func TestSplitReturn_MultipleUnits(t *testing.T) {
	units, rem := splitReturn(0, -250)
	if units != 3 || rem != 50 {
		t.Fatalf("got units=%d rem=%d, want 3/50", units, rem)
	}
}

func TestRemainderBound(t *testing.T) {
	for rem := 0; rem < UnitLengthCm; rem++ {
		for delta := 1; delta <= 350; delta += 7 {
			_, newRem := splitConsumption(rem, delta)
			if newRem < 0 || newRem >= UnitLengthCm {
				t.Fatalf("consumption: remainder %d out of [0,%d) for rem=%d delta=%d", newRem, UnitLengthCm, rem, delta)
			}
			_, newRem = splitReturn(rem, -delta)
			if newRem < 0 || newRem >= UnitLengthCm {
				t.Fatalf("return: remainder %d out of [0,%d) for rem=%d delta=%d", newRem, UnitLengthCm, rem, delta)
			}
		}
	}
}

// Conservation: the available tracked length (quantity*UnitLengthCm -
// remainderCm) must change by exactly -delta across any successful
// sequence of splits.
func TestConservationAcrossSequence(t *testing.T) {
	quantity, remainder := 10, 0
	available := func() int { return quantity*UnitLengthCm - remainder }
	initial := available()

	var applied int
	deltas := []int{150, 60, 5, -30, 199, -250, 1, 99, -1}
	for _, delta := range deltas {
		if delta > 0 {
			if delta > available() {
				t.Fatalf("test sequence exceeds availability at delta=%d", delta)
			}
			whole, rem := splitConsumption(remainder, delta)
			quantity -= whole
			remainder = rem
		} else {
			units, rem := splitReturn(remainder, delta)
			quantity += units
			remainder = rem
		}
		applied += delta
		if got, want := available(), initial-applied; got != want {
			t.Fatalf("after delta=%d: available=%d, want %d", delta, got, want)
		}
		if remainder < 0 || remainder >= UnitLengthCm {
			t.Fatalf("after delta=%d: remainder %d out of bounds", delta, remainder)
		}
		if quantity < 0 {
			t.Fatalf("after delta=%d: negative quantity %d", delta, quantity)
		}
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := error(&InsufficientStockError{
		MaterialId:      "vinilo106",
		InventoryItemId: 7,
		RequestedCm:     5,
		AvailableCm:     -10,
		RemainderCm:     10,
	})
	if !IsInsufficientStock(err) {
		t.Fatal("IsInsufficientStock should match")
	}
	var target *InsufficientStockError
	if !errors.As(err, &target) || target.RequestedCm != 5 {
		t.Fatal("errors.As should recover the typed error")
	}
	if IsInsufficientStock(errors.New("boom")) {
		t.Fatal("IsInsufficientStock should not match arbitrary errors")
	}
}
