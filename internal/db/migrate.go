package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/valoris/ordering-app/internal/models"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectAndMigrate opens the store (postgres or sqlite, picked from the DSN
// shape) and brings the schema up to date.
func ConnectAndMigrate(rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	dial := dialectorFor(dsn)
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(dial, cfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Msg("retrying DB connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// Print masked DSN once for diagnostics (before migrations for visibility)
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	log.Info().Str("dsn", masked).Msg("database connected")

	// With MIGRATIONS=1 (or true) sql migrations run via golang-migrate;
	// otherwise AutoMigrate keeps the schema in sync (dev convenience).
	if isPostgres(dsn) && truthy(os.Getenv("MIGRATIONS")) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range modelSet() {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"orders", "inventory_items", "inventory_transactions", "inventory_alerts"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if truthy(os.Getenv("DB_SEED")) {
		seed(db)
	}
	return db, nil
}

func modelSet() []interface{} {
	return []interface{}{
		&models.CatalogProduct{},
		&models.SupplierShipping{}, &models.ShippingTier{},
		&models.Order{}, &models.OrderItem{},
		&models.InventoryItem{}, &models.InventoryTransaction{}, &models.InventoryAlert{},
		&models.ProductUpdateRequest{}, &models.ImportBatch{},
	}
}

// AutoMigrateAll applies the full model set on an already-open handle. Used
// by tests and the migrate-only entry point.
func AutoMigrateAll(db *gorm.DB) error {
	for _, m := range modelSet() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func dialectorFor(dsn string) gorm.Dialector {
	if isPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || kvPairRegex.MatchString(dsn)
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// seed inserts demo reference data: a small supplier catalog and the matching
// shipping schedules. Idempotent.
func seed(db *gorm.DB) {
	maxBand := func(v float64) *float64 { return &v }
	schedules := []models.SupplierShipping{
		{SupplierID: 1, SupplierName: "Ferme des Quatre Vents", Tiers: []models.ShippingTier{
			{MinAmount: 0, MaxAmount: maxBand(50), ShippingCost: 15},
			{MinAmount: 50, MaxAmount: maxBand(100), ShippingCost: 10},
			{MinAmount: 100, ShippingCost: 0},
		}},
		{SupplierID: 2, SupplierName: "Minoterie Dupuis", Tiers: []models.ShippingTier{
			{MinAmount: 0, MaxAmount: maxBand(200), ShippingCost: 20},
			{MinAmount: 200, ShippingCost: 0},
		}},
	}
	for _, sc := range schedules {
		var existing models.SupplierShipping
		if err := db.Where("supplier_id = ?", sc.SupplierID).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&sc)
		}
	}
	products := []models.CatalogProduct{
		{Name: "Carottes bio", Reference: "LEG-001", PriceHT: 1.80, PackagingCoefficient: 5, PackagingUnit: "cagette de 5 kg", Unit: "kg", Category: "Légumes", SupplierID: 1, SupplierName: "Ferme des Quatre Vents", IsOrganic: true, IsEgalim: true},
		{Name: "Pommes de terre", Reference: "LEG-014", PriceHT: 0.95, PackagingCoefficient: 10, PackagingUnit: "sac de 10 kg", Unit: "kg", Category: "Légumes", SupplierID: 1, SupplierName: "Ferme des Quatre Vents", IsEgalim: true},
		{Name: "Farine T65", Reference: "EPI-203", PriceHT: 1.10, PackagingCoefficient: 25, PackagingUnit: "sac de 25 kg", Unit: "kg", Category: "Épicerie", SupplierID: 2, SupplierName: "Minoterie Dupuis"},
	}
	for _, p := range products {
		var existing models.CatalogProduct
		if err := db.Where("reference = ?", p.Reference).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&p)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", ToURLDSN(dsn))
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
