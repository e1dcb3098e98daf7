// Package testutil opens throwaway databases and seeds catalog fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"go-opname-ws/internal/model"
	"go-opname-ws/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory SQLite database private to the test.
// A single connection is used, so queries inside a transaction must go
// through the transaction handle.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Unit builds a product unit; factor is a decimal string such as "12" or "0.5"
func Unit(name, factor string, sortOrder int) model.ProductUnit {
	return model.ProductUnit{
		UnitName:         name,
		ConversionToBase: decimal.RequireFromString(factor),
		SortOrder:        sortOrder,
	}
}

// SeedTeam inserts a team
func SeedTeam(t *testing.T, db *gorm.DB, name string) *model.Team {
	t.Helper()
	team := &model.Team{Name: name}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}

// SeedProduct inserts a product with its units. Without units it gets Pcs x1.
func SeedProduct(t *testing.T, db *gorm.DB, teamID uuid.UUID, sku string, location model.LocationType, stock int, units ...model.ProductUnit) *model.Product {
	t.Helper()
	if len(units) == 0 {
		units = []model.ProductUnit{Unit("Pcs", "1", 0)}
	}
	product := &model.Product{
		TeamID:       teamID,
		SKU:          sku,
		Name:         "Produk " + sku,
		Category:     "Umum",
		CurrentStock: stock,
		LocationType: location,
		Units:        units,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product %s: %v", sku, err)
	}
	return product
}

// ReloadProduct reads the product row again, including soft-deleted rows
func ReloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Product {
	t.Helper()
	var product model.Product
	if err := db.Unscoped().First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &product
}

// CountRows counts rows of model matching the optional condition
func CountRows(t *testing.T, db *gorm.DB, value interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Unscoped().Model(value)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}
