package services

import (
	"fmt"
	"testing"

	"github.com/valoris/ordering-app/internal/catalog"
	"github.com/valoris/ordering-app/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

func maxBand(v float64) *float64 { return &v }

// seedShippingFixtures installs supplier A's tier schedule: 0–50 → 15,
// 50–100 → 10, 100+ → 0.
func seedShippingFixtures(t *testing.T, db *gorm.DB, supplierID uint) {
	t.Helper()
	schedule := models.SupplierShipping{
		SupplierID:   supplierID,
		SupplierName: "Fournisseur Test",
		Tiers: []models.ShippingTier{
			{MinAmount: 0, MaxAmount: maxBand(50), ShippingCost: 15},
			{MinAmount: 50, MaxAmount: maxBand(100), ShippingCost: 10},
			{MinAmount: 100, ShippingCost: 0},
		},
	}
	if err := db.Create(&schedule).Error; err != nil {
		t.Fatalf("seed shipping: %v", err)
	}
}

func testCatalog() *catalog.Static {
	return catalog.NewStatic(
		models.CatalogProduct{ID: 1, Name: "Carottes bio", Reference: "LEG-001", PriceHT: 5, PackagingCoefficient: 5, PackagingUnit: "cagette de 5 kg", Unit: "kg", Category: "Légumes", SupplierID: 10, SupplierName: "Ferme des Quatre Vents", IsOrganic: true},
		models.CatalogProduct{ID: 2, Name: "Farine T65", Reference: "EPI-203", PriceHT: 1.10, PackagingCoefficient: 25, Unit: "kg", Category: "Épicerie", SupplierID: 20, SupplierName: "Minoterie Dupuis"},
		models.CatalogProduct{ID: 3, Name: "Beurre doux", Reference: "CRE-010", PriceHT: 7.50, Unit: "plaquette", Category: "Crèmerie", SupplierID: 10, SupplierName: "Ferme des Quatre Vents"},
	)
}

func newTestInventory(t *testing.T, db *gorm.DB) *InventoryService {
	t.Helper()
	return NewInventoryService(db, testCatalog(), zerolog.Nop())
}
