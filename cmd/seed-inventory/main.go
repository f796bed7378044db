// seed-inventory creates one inventory row per configured material preset,
// with a starting quantity of whole roll-units.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-inventory [-qty 10]
//
// Existing rows (matched by code) are left untouched.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/granformato/pedidos_backend/config"
	"github.com/granformato/pedidos_backend/models"
	"gorm.io/gorm"
)

func main() {
	qty := flag.Int("qty", 10, "starting quantity (whole roll-units) for new items")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var created, skipped int
	for _, preset := range models.MaterialPresets() {
		var existing models.InventoryItem
		err := db.Where("code = ?", preset.Key).First(&existing).Error
		if err == nil {
			skipped++
			continue
		}
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "lookup %s: %v\n", preset.Key, err)
			os.Exit(1)
		}
		item := models.InventoryItem{
			Code:          preset.Key,
			Name:          preset.Label,
			Quantity:      *qty,
			PricePerMeter: preset.PricePerMeter,
			WidthCm:       preset.WidthCm,
		}
		if err := db.Create(&item).Error; err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", preset.Key, err)
			os.Exit(1)
		}
		created++
	}

	fmt.Printf("seed-inventory done: created=%d skipped=%d\n", created, skipped)
}
