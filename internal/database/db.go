package database

import (
	"khanabuddy/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite" // SQLite driver
)

var DB *gorm.DB

// InitDB initializes the database connection. Dialect is "sqlite3" or
// "postgres"; dsn is a file path or a connection string accordingly.
func InitDB(dialect, dsn string) error {
	var err error
	DB, err = gorm.Open(dialect, dsn)
	if err != nil {
		return err
	}
	return nil
}

// Migrate creates or updates the schema for all models.
func Migrate() error {
	return DB.AutoMigrate(
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.AdminLogin{},
	).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
