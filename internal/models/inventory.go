package models

import "time"

// Inventory transaction types.
const (
	TransactionIn         = "in"
	TransactionOut        = "out"
	TransactionAdjustment = "adjustment"
)

// Alert severities.
const (
	AlertSeverityLow      = "low"
	AlertSeverityCritical = "critical"
)

// DefaultAlertThreshold applies to ledger entries created without explicit configuration.
const DefaultAlertThreshold = 5

// InventoryItem is the authoritative current-stock view for one product.
// Catalog fields (name, labels, category...) are a snapshot taken at creation
// time and are not re-synced afterwards.
type InventoryItem struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProductID          uint      `gorm:"not null;uniqueIndex" json:"product_id"`
	ProductName        string    `json:"product_name"`
	Reference          string    `json:"reference,omitempty"`
	SupplierName       string    `json:"supplier_name,omitempty"`
	Unit               string    `json:"unit,omitempty"`
	Category           string    `json:"category,omitempty"`
	IsOrganic          bool      `json:"is_organic"`
	IsEgalim           bool      `json:"is_egalim"`
	OtherLabels        string    `json:"other_labels,omitempty"`
	CurrentStock       float64   `gorm:"not null;default:0" json:"current_stock"` // jamais négatif, borné à 0
	AlertThreshold     float64   `gorm:"not null;default:5" json:"alert_threshold"`
	AverageConsumption float64   `json:"average_consumption"` // réservé, non recalculé pour l'instant
	LastUpdated        time.Time `json:"last_updated"`
	CreatedAt          time.Time `json:"created_at"`
}

// InventoryTransaction is an immutable stock-movement record. Quantity is
// always positive; the sign is implied by Type, and an adjustment stores the
// absolute delta. Records are never edited or removed.
type InventoryTransaction struct {
	ID          string    `gorm:"size:36;primaryKey" json:"id"` // uuid
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	ProductName string    `json:"product_name"`
	Type        string    `gorm:"not null" json:"type"`
	Quantity    float64   `gorm:"not null" json:"quantity"`
	Reason      string    `gorm:"not null" json:"reason"`
	OrderID     *uint     `gorm:"index" json:"order_id,omitempty"` // commande à l'origine du mouvement, si applicable
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// InventoryAlert is derived from the ledger: at most one per product at any
// time, severity critical iff the stock is exactly zero.
type InventoryAlert struct {
	ID             string    `gorm:"size:36;primaryKey" json:"id"` // uuid
	ProductID      uint      `gorm:"not null;index" json:"product_id"`
	ProductName    string    `json:"product_name"`
	CurrentStock   float64   `json:"current_stock"`
	AlertThreshold float64   `json:"alert_threshold"`
	Severity       string    `gorm:"not null" json:"severity"`
	Acknowledged   bool      `gorm:"not null;default:false" json:"acknowledged"`
	CreatedAt      time.Time `json:"created_at"`
}
