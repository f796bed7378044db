package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/granformato/pedidos_backend/config"
	"github.com/granformato/pedidos_backend/utils"
	"gorm.io/gorm"
)

// ResolvedMaterial is what the ledger and the recomputer know about a
// free-form material identifier. Either field may be nil; callers prefer
// the live inventory record for pricing/width, falling back to the preset.
// A material with neither is invalid.
type ResolvedMaterial struct {
	Item   *InventoryItem
	Preset *MaterialPreset
}

func (r *ResolvedMaterial) IsValid() bool {
	return r != nil && (r.Item != nil || r.Preset != nil)
}

// NominalWidthCm prefers the inventory record's width, then the preset's.
func (r *ResolvedMaterial) NominalWidthCm() *float64 {
	if r == nil {
		return nil
	}
	if r.Item != nil && r.Item.WidthCm > 0 {
		w := r.Item.WidthCm
		return &w
	}
	if r.Preset != nil && r.Preset.WidthCm > 0 {
		w := r.Preset.WidthCm
		return &w
	}
	return nil
}

// materialCandidates lists the identifier variants matched against
// InventoryItem.code and InventoryItem.name.
func materialCandidates(materialId string) []string {
	raw := strings.TrimSpace(materialId)
	if raw == "" {
		return nil
	}
	seen := map[string]bool{}
	candidates := make([]string, 0, 4)
	for _, c := range []string{raw, strings.ToLower(raw), strings.ToUpper(raw), utils.NormalizeMaterialKey(raw)} {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		candidates = append(candidates, c)
	}
	return candidates
}

// ResolveMaterial maps a free-form material identifier (code, display name
// or preset key) to the inventory record and the static preset. The
// inventory id for a key is cached in Redis; the row itself is always
// re-read so quantity is never served stale.
func ResolveMaterial(tx *gorm.DB, materialId string) (*ResolvedMaterial, error) {
	resolved := &ResolvedMaterial{
		Preset: LookupMaterialPreset(materialId),
	}

	candidates := materialCandidates(materialId)
	if len(candidates) == 0 {
		return resolved, nil
	}

	cacheKey := fmt.Sprintf("material:itemId:%s", utils.NormalizeMaterialKey(materialId))
	var cachedId int
	if found, err := config.GetRedisObject(cacheKey, &cachedId); err == nil && found && cachedId > 0 {
		var item InventoryItem
		err := tx.Where("id = ?", cachedId).First(&item).Error
		if err == nil {
			resolved.Item = &item
			return resolved, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		// cached id no longer exists, fall through to the full lookup
		_ = config.RemoveRedisKey(cacheKey)
	}

	item, err := FindInventoryItemByIdentifier(tx, candidates)
	if err != nil {
		return nil, err
	}
	if item != nil {
		resolved.Item = item
		_ = config.SetRedisObject(cacheKey, item.ID, 10*time.Minute)
	}
	return resolved, nil
}

// EffectiveMaterialWidth applies the width resolution precedence used by
// the metrics calculator: explicit per-pedido override > static
// material->width table > none.
func EffectiveMaterialWidth(overrideCm *float64, materialId string) *float64 {
	if overrideCm != nil && *overrideCm > 0 {
		return overrideCm
	}
	return LookupMaterialWidth(materialId)
}
