package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valoris/ordering-app/internal/catalog"
	"github.com/valoris/ordering-app/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Ledger failures are local and recoverable: state is left unchanged and the
// error is returned to the caller instead of propagating into the
// notification pipeline.
var (
	ErrProductNotFound   = errors.New("produit absent du stock")
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrAlertNotFound     = errors.New("alerte introuvable")
)

// InventoryService owns the per-product stock ledger: current levels, the
// append-only transaction log and the derived alerts. Every successful stock
// mutation appends exactly one transaction and re-evaluates the product's
// alert, atomically.
type InventoryService struct {
	DB      *gorm.DB
	Catalog catalog.Finder
	Log     zerolog.Logger

	mu sync.Mutex
}

func NewInventoryService(db *gorm.DB, cat catalog.Finder, log zerolog.Logger) *InventoryService {
	return &InventoryService{DB: db, Catalog: cat, Log: log}
}

// AddStock increments a product's stock, creating the ledger entry (seeded at
// qty, with a catalog snapshot) on first sight.
func (s *InventoryService) AddStock(productID uint, qty float64, reason string, orderID *uint, createdBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		item, err := s.loadOrCreateItem(tx, productID)
		if err != nil {
			return err
		}
		item.CurrentStock += qty
		if item.CurrentStock < 0 {
			item.CurrentStock = 0
		}
		item.LastUpdated = time.Now()
		if err := tx.Save(item).Error; err != nil {
			return fmt.Errorf("update stock for product %d: %w", productID, err)
		}
		if err := s.appendTransaction(tx, item, models.TransactionIn, qty, reason, orderID, createdBy); err != nil {
			return err
		}
		return s.evaluateAlert(tx, item)
	})
}

// RemoveStock decrements a product's stock. It fails without any mutation
// when the product has no ledger entry or the requested quantity exceeds the
// current stock.
func (s *InventoryService) RemoveStock(productID uint, qty float64, reason, createdBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		item, err := s.loadItem(tx, productID)
		if err != nil {
			return err
		}
		if qty > item.CurrentStock {
			return fmt.Errorf("%w: produit %d, demandé %.2f, disponible %.2f",
				ErrInsufficientStock, productID, qty, item.CurrentStock)
		}
		item.CurrentStock -= qty
		if item.CurrentStock < 0 {
			item.CurrentStock = 0
		}
		item.LastUpdated = time.Now()
		if err := tx.Save(item).Error; err != nil {
			return fmt.Errorf("update stock for product %d: %w", productID, err)
		}
		if err := s.appendTransaction(tx, item, models.TransactionOut, qty, reason, nil, createdBy); err != nil {
			return err
		}
		return s.evaluateAlert(tx, item)
	})
}

// AdjustStock sets a product's stock to newQty; the logged transaction stores
// the absolute delta. A missing ledger entry is created first so the
// transaction never dangles.
func (s *InventoryService) AdjustStock(productID uint, newQty float64, reason, createdBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if newQty < 0 {
		newQty = 0
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		item, err := s.loadOrCreateItem(tx, productID)
		if err != nil {
			return err
		}
		delta := newQty - item.CurrentStock
		if delta < 0 {
			delta = -delta
		}
		item.CurrentStock = newQty
		item.LastUpdated = time.Now()
		if err := tx.Save(item).Error; err != nil {
			return fmt.Errorf("update stock for product %d: %w", productID, err)
		}
		if err := s.appendTransaction(tx, item, models.TransactionAdjustment, delta, reason, nil, createdBy); err != nil {
			return err
		}
		return s.evaluateAlert(tx, item)
	})
}

// SetAlertThreshold updates the configured threshold only; the next stock
// mutation re-evaluates the alert.
func (s *InventoryService) SetAlertThreshold(productID uint, threshold float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.loadItem(s.DB, productID)
	if err != nil {
		return err
	}
	item.AlertThreshold = threshold
	if err := s.DB.Save(item).Error; err != nil {
		return fmt.Errorf("update threshold for product %d: %w", productID, err)
	}
	return nil
}

// AcknowledgeAlert removes an alert from the active view while keeping it in
// history.
func (s *InventoryService) AcknowledgeAlert(alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.DB.Model(&models.InventoryAlert{}).Where("id = ?", alertID).Update("acknowledged", true)
	if res.Error != nil {
		return fmt.Errorf("acknowledge alert %s: %w", alertID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CurrentStock returns the ledger level for one product.
func (s *InventoryService) CurrentStock(productID uint) (float64, error) {
	item, err := s.loadItem(s.DB, productID)
	if err != nil {
		return 0, err
	}
	return item.CurrentStock, nil
}

// Items lists every ledger entry.
func (s *InventoryService) Items() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := s.DB.Order("product_id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	return items, nil
}

// ActiveAlerts lists unacknowledged alerts.
func (s *InventoryService) ActiveAlerts() ([]models.InventoryAlert, error) {
	var alerts []models.InventoryAlert
	if err := s.DB.Where("acknowledged = ?", false).Order("created_at asc").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	return alerts, nil
}

// History returns the append-only transaction log oldest-first, optionally
// scoped to one product (productID 0 means all).
func (s *InventoryService) History(productID uint) ([]models.InventoryTransaction, error) {
	q := s.DB.Order("created_at asc, id asc")
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	var txns []models.InventoryTransaction
	if err := q.Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	return txns, nil
}

// EnsureItems walks the catalog and creates a zero-stock ledger entry for
// every product that has none yet. Returns the number created.
func (s *InventoryService) EnsureItems() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products, err := s.Catalog.Products()
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range products {
		var count int64
		if err := s.DB.Model(&models.InventoryItem{}).Where("product_id = ?", p.ID).Count(&count).Error; err != nil {
			return created, fmt.Errorf("check ledger entry for product %d: %w", p.ID, err)
		}
		if count > 0 {
			continue
		}
		item := newItemFromCatalog(&p)
		if err := s.DB.Create(item).Error; err != nil {
			return created, fmt.Errorf("create ledger entry for product %d: %w", p.ID, err)
		}
		created++
	}
	return created, nil
}

func (s *InventoryService) loadItem(tx *gorm.DB, productID uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := tx.Where("product_id = ?", productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("load ledger entry for product %d: %w", productID, err)
	}
	return &item, nil
}

func (s *InventoryService) loadOrCreateItem(tx *gorm.DB, productID uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := tx.Where("product_id = ?", productID).First(&item).Error
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load ledger entry for product %d: %w", productID, err)
	}
	var created *models.InventoryItem
	if p, cerr := s.Catalog.FindProduct(productID); cerr == nil {
		created = newItemFromCatalog(p)
	} else {
		// Product unknown to the catalog: keep the ledger entry minimal.
		created = &models.InventoryItem{
			ProductID:      productID,
			AlertThreshold: models.DefaultAlertThreshold,
			LastUpdated:    time.Now(),
		}
	}
	if err := tx.Create(created).Error; err != nil {
		return nil, fmt.Errorf("create ledger entry for product %d: %w", productID, err)
	}
	return created, nil
}

// newItemFromCatalog snapshots catalog fields at creation time; they are not
// re-synced afterwards.
func newItemFromCatalog(p *models.CatalogProduct) *models.InventoryItem {
	return &models.InventoryItem{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Reference:      p.Reference,
		SupplierName:   p.SupplierName,
		Unit:           p.Unit,
		Category:       p.Category,
		IsOrganic:      p.IsOrganic,
		IsEgalim:       p.IsEgalim,
		OtherLabels:    p.OtherLabels,
		AlertThreshold: models.DefaultAlertThreshold,
		LastUpdated:    time.Now(),
	}
}

func (s *InventoryService) appendTransaction(tx *gorm.DB, item *models.InventoryItem, kind string, qty float64, reason string, orderID *uint, createdBy string) error {
	txn := models.InventoryTransaction{
		ID:          uuid.NewString(),
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Type:        kind,
		Quantity:    qty,
		Reason:      reason,
		OrderID:     orderID,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return fmt.Errorf("append %s transaction for product %d: %w", kind, item.ProductID, err)
	}
	return nil
}

// evaluateAlert drops every alert for the product, then inserts a fresh one
// when the stock sits at or under the threshold. At most one alert per
// product can exist at any time.
func (s *InventoryService) evaluateAlert(tx *gorm.DB, item *models.InventoryItem) error {
	if err := tx.Where("product_id = ?", item.ProductID).Delete(&models.InventoryAlert{}).Error; err != nil {
		return fmt.Errorf("clear alerts for product %d: %w", item.ProductID, err)
	}
	if item.CurrentStock > item.AlertThreshold {
		return nil
	}
	severity := models.AlertSeverityLow
	if item.CurrentStock == 0 {
		severity = models.AlertSeverityCritical
	}
	alert := models.InventoryAlert{
		ID:             uuid.NewString(),
		ProductID:      item.ProductID,
		ProductName:    item.ProductName,
		CurrentStock:   item.CurrentStock,
		AlertThreshold: item.AlertThreshold,
		Severity:       severity,
		CreatedAt:      time.Now(),
	}
	if err := tx.Create(&alert).Error; err != nil {
		return fmt.Errorf("create alert for product %d: %w", item.ProductID, err)
	}
	s.Log.Warn().
		Uint("product_id", item.ProductID).
		Str("product", item.ProductName).
		Float64("stock", item.CurrentStock).
		Str("severity", severity).
		Msg("stock alert")
	return nil
}
