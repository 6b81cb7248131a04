package models

import "time"

// CatalogProduct is the référentiel produit row this core reads but does not
// own: pricing, packaging and labelling come from the supplier catalog.
type CatalogProduct struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"not null" json:"name"`
	Reference            string    `gorm:"index" json:"reference,omitempty"`
	PriceHT              float64   `gorm:"not null" json:"price_ht"`
	PackagingCoefficient float64   `gorm:"not null;default:1" json:"packaging_coefficient"` // unités de stock par unité commandée
	PackagingUnit        string    `json:"packaging_unit,omitempty"`
	Unit                 string    `json:"unit,omitempty"`
	Category             string    `json:"category,omitempty"`
	SupplierID           uint      `gorm:"not null;index" json:"supplier_id"`
	SupplierName         string    `json:"supplier_name"`
	IsOrganic            bool      `json:"is_organic"`
	IsEgalim             bool      `json:"is_egalim"`
	OtherLabels          string    `json:"other_labels,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
