package models

import "time"

// SupplierShipping is a supplier's tiered shipping schedule. Configuration
// owned by the supplier, read-only from the order core's perspective.
type SupplierShipping struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SupplierID   uint           `gorm:"not null;uniqueIndex" json:"supplier_id"`
	SupplierName string         `json:"supplier_name"`
	Tiers        []ShippingTier `gorm:"foreignKey:SupplierShippingID" json:"tiers"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ShippingTier maps a [MinAmount, MaxAmount) subtotal band to a shipping cost.
// A nil MaxAmount means unbounded above.
type ShippingTier struct {
	ID                 uint     `gorm:"primaryKey" json:"id"`
	SupplierShippingID uint     `gorm:"not null;index" json:"-"`
	MinAmount          float64  `gorm:"not null" json:"min_amount"`
	MaxAmount          *float64 `json:"max_amount,omitempty"`
	ShippingCost       float64  `gorm:"not null" json:"shipping_cost"`
}
