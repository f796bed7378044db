package models

import (
	"github.com/granformato/pedidos_backend/utils"
	"github.com/shopspring/decimal"
)

// MaterialPreset is catalog configuration for a known material family:
// display label, price per whole unit (meter) and nominal roll width.
// The table is static and read-only to this core; live InventoryItem rows
// take precedence over presets when both exist.
type MaterialPreset struct {
	Key           string          `json:"key"`
	Label         string          `json:"label"`
	PricePerMeter decimal.Decimal `json:"price_per_meter"`
	WidthCm       float64         `json:"width_cm"`
}

// materialPresets is keyed by normalized material key (see
// utils.NormalizeMaterialKey). Several widths/price points per family.
var materialPresets = map[string]MaterialPreset{
	"vinilo106":        {Key: "vinilo106", Label: "Vinilo impresión 106 cm", PricePerMeter: decimal.NewFromInt(1200), WidthCm: 106},
	"vinilo137":        {Key: "vinilo137", Label: "Vinilo impresión 137 cm", PricePerMeter: decimal.NewFromInt(1500), WidthCm: 137},
	"vinilo152":        {Key: "vinilo152", Label: "Vinilo impresión 152 cm", PricePerMeter: decimal.NewFromInt(1700), WidthCm: 152},
	"lona110":          {Key: "lona110", Label: "Lona frontlight 110 cm", PricePerMeter: decimal.NewFromInt(900), WidthCm: 110},
	"lona160":          {Key: "lona160", Label: "Lona frontlight 160 cm", PricePerMeter: decimal.NewFromInt(1300), WidthCm: 160},
	"lona320":          {Key: "lona320", Label: "Lona frontlight 320 cm", PricePerMeter: decimal.NewFromInt(2400), WidthCm: 320},
	"papelfoto":        {Key: "papelfoto", Label: "Papel fotográfico 106 cm", PricePerMeter: decimal.NewFromInt(1100), WidthCm: 106},
	"canvas":           {Key: "canvas", Label: "Canvas algodón 110 cm", PricePerMeter: decimal.NewFromInt(2100), WidthCm: 110},
	"polipropileno":    {Key: "polipropileno", Label: "Polipropileno 106 cm", PricePerMeter: decimal.NewFromInt(950), WidthCm: 106},
	"vinilomicroperf":  {Key: "vinilomicroperf", Label: "Vinilo microperforado 137 cm", PricePerMeter: decimal.NewFromInt(1600), WidthCm: 137},
	"backlight":        {Key: "backlight", Label: "Backlight 126 cm", PricePerMeter: decimal.NewFromInt(1800), WidthCm: 126},
	"tela":             {Key: "tela", Label: "Tela poliéster 155 cm", PricePerMeter: decimal.NewFromInt(1400), WidthCm: 155},
}

// materialWidths is the static material -> nominal width table consulted by
// the metrics calculator when the pedido has no explicit width override.
var materialWidths = map[string]float64{
	"vinilo106":       106,
	"vinilo137":       137,
	"vinilo152":       152,
	"lona110":         110,
	"lona160":         160,
	"lona320":         320,
	"papelfoto":       106,
	"canvas":          110,
	"polipropileno":   106,
	"vinilomicroperf": 137,
	"backlight":       126,
	"tela":            155,
}

// LookupMaterialPreset returns the preset for a free-form identifier, or
// nil when the normalized key is unknown.
func LookupMaterialPreset(materialId string) *MaterialPreset {
	key := utils.NormalizeMaterialKey(materialId)
	if key == "" {
		return nil
	}
	preset, ok := materialPresets[key]
	if !ok {
		return nil
	}
	return &preset
}

// LookupMaterialWidth returns the nominal width for a free-form material
// identifier, or nil when none is configured.
func LookupMaterialWidth(materialId string) *float64 {
	key := utils.NormalizeMaterialKey(materialId)
	if key == "" {
		return nil
	}
	width, ok := materialWidths[key]
	if !ok {
		return nil
	}
	return &width
}

func MaterialPresets() []MaterialPreset {
	presets := make([]MaterialPreset, 0, len(materialPresets))
	for _, p := range materialPresets {
		presets = append(presets, p)
	}
	return presets
}
