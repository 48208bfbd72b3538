package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"orderdesk/internal/model"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&model.Store{},
		&model.Product{},
		&model.User{},
		&model.PriceHistory{},
		&model.Order{},
		&model.OrderLine{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.POD{},
		&model.Planogram{},
		&model.Distribution{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
