package models

import (
	"log"

	"github.com/granformato/pedidos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&InventoryItem{}, &MaterialRemainder{},
		&Pedido{}, &Attachment{},
		&FileProcessingJob{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
