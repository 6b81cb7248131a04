package handlers

import (
	"fmt"
	"testing"

	"github.com/valoris/ordering-app/internal/catalog"
	"github.com/valoris/ordering-app/internal/events"
	"github.com/valoris/ordering-app/internal/models"
	"github.com/valoris/ordering-app/internal/services"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.CatalogProduct{},
		&models.SupplierShipping{}, &models.ShippingTier{},
		&models.Order{}, &models.OrderItem{},
		&models.InventoryItem{}, &models.InventoryTransaction{}, &models.InventoryAlert{},
		&models.ProductUpdateRequest{}, &models.ImportBatch{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testCatalog() *catalog.Static {
	return catalog.NewStatic(
		models.CatalogProduct{ID: 1, Name: "Carottes bio", PriceHT: 5, PackagingCoefficient: 5, Unit: "kg", SupplierID: 10, SupplierName: "Ferme des Quatre Vents"},
		models.CatalogProduct{ID: 2, Name: "Farine T65", PriceHT: 1.10, PackagingCoefficient: 25, Unit: "kg", SupplierID: 20, SupplierName: "Minoterie Dupuis"},
	)
}

func newOrderFixture(t *testing.T, db *gorm.DB) *OrderHandler {
	t.Helper()
	svc := services.NewOrderService(db, testCatalog(), services.NewShippingService(db), events.NewDispatcher(), 0.20, zerolog.Nop())
	return NewOrderHandler(svc)
}

func newInventoryFixture(t *testing.T, db *gorm.DB) *InventoryHandler {
	t.Helper()
	return NewInventoryHandler(services.NewInventoryService(db, testCatalog(), zerolog.Nop()))
}

func newUpdateFixture(t *testing.T, db *gorm.DB) *UpdateHandler {
	t.Helper()
	return NewUpdateHandler(services.NewUpdateService(db))
}
