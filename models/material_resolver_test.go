package models

import (
	"reflect"
	"testing"
)

func TestMaterialCandidates(t *testing.T) {
	got := materialCandidates("  Vinilo 106 ")
	want := []string{"Vinilo 106", "vinilo 106", "VINILO 106", "vinilo106"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMaterialCandidates_DedupesVariants(t *testing.T) {
	got := materialCandidates("lona110")
	want := []string{"lona110", "LONA110"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMaterialCandidates_Empty(t *testing.T) {
	if got := materialCandidates("   "); got != nil {
		t.Fatalf("got %v, want nil for blank identifier", got)
	}
}

func TestLookupMaterialPreset(t *testing.T) {
	for _, id := range []string{"vinilo106", "Vinilo 106", "VINILO-106", "vinilo_106"} {
		preset := LookupMaterialPreset(id)
		if preset == nil {
			t.Fatalf("identifier %q should resolve to a preset", id)
		}
		if preset.Key != "vinilo106" || preset.WidthCm != 106 {
			t.Fatalf("identifier %q resolved to %+v", id, preset)
		}
	}
	if LookupMaterialPreset("madera") != nil {
		t.Fatal("unknown material should resolve to nil")
	}
	if LookupMaterialPreset("") != nil {
		t.Fatal("blank material should resolve to nil")
	}
}

func TestLookupMaterialWidth(t *testing.T) {
	w := LookupMaterialWidth("Lona 320")
	if w == nil || *w != 320 {
		t.Fatalf("got %v, want 320", w)
	}
	if LookupMaterialWidth("desconocido") != nil {
		t.Fatal("unknown material should have no width")
	}
}

func TestEffectiveMaterialWidth_Precedence(t *testing.T) {
	override := 57.0
	got := EffectiveMaterialWidth(&override, "vinilo106")
	if got == nil || *got != 57 {
		t.Fatalf("got %v, want override 57", got)
	}

	got = EffectiveMaterialWidth(nil, "vinilo106")
	if got == nil || *got != 106 {
		t.Fatalf("got %v, want table width 106", got)
	}

	// A zero/negative override is ignored.
	zero := 0.0
	got = EffectiveMaterialWidth(&zero, "vinilo106")
	if got == nil || *got != 106 {
		t.Fatalf("got %v, want table width 106 when override is zero", got)
	}

	if got := EffectiveMaterialWidth(nil, "desconocido"); got != nil {
		t.Fatalf("got %v, want nil for unknown material without override", got)
	}
}

func TestResolvedMaterialNominalWidth(t *testing.T) {
	preset := LookupMaterialPreset("lona160")
	item := &InventoryItem{WidthCm: 150}

	r := &ResolvedMaterial{Item: item, Preset: preset}
	if w := r.NominalWidthCm(); w == nil || *w != 150 {
		t.Fatalf("got %v, want inventory width 150", w)
	}

	r = &ResolvedMaterial{Preset: preset}
	if w := r.NominalWidthCm(); w == nil || *w != 160 {
		t.Fatalf("got %v, want preset width 160", w)
	}

	r = &ResolvedMaterial{}
	if r.IsValid() {
		t.Fatal("material with neither item nor preset must be invalid")
	}
	if r.NominalWidthCm() != nil {
		t.Fatal("invalid material has no width")
	}
}
