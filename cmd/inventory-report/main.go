// inventory-report exports the current material inventory (whole units,
// carried remainder, tracked length) to an XLSX file.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/inventory-report [-out inventory.xlsx]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/granformato/pedidos_backend/config"
	"github.com/granformato/pedidos_backend/models"
	"github.com/granformato/pedidos_backend/workflow"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func main() {
	out := flag.String("out", "inventory.xlsx", "output file")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx := context.Background()
	items, err := models.GetInventoryItems(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load inventory: %v\n", err)
		os.Exit(1)
	}

	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Code")
	f.SetCellValue(sheet, "B1", "Name")
	f.SetCellValue(sheet, "C1", "Quantity (units)")
	f.SetCellValue(sheet, "D1", "Remainder (cm)")
	f.SetCellValue(sheet, "E1", "Available length (cm)")
	f.SetCellValue(sheet, "F1", "Price per meter")

	for i, item := range items {
		remainderCm := 0
		var remainder models.MaterialRemainder
		err := db.WithContext(ctx).Where("inventory_item_id = ?", item.ID).First(&remainder).Error
		if err == nil {
			remainderCm = remainder.RemainderCm
		} else if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "load remainder for %s: %v\n", item.Code, err)
			os.Exit(1)
		}

		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), remainderCm)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Quantity*workflow.UnitLengthCm-remainderCm)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.PricePerMeter.InexactFloat64())
	}

	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("inventory-report done: %d materials -> %s\n", len(items), *out)
}
