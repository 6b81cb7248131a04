package models

import "time"

// Order lifecycle statuses.
const (
	OrderStatusOrdered   = "ordered"
	OrderStatusReceived  = "received"
	OrderStatusCancelled = "cancelled"
)

// Litige (dispute) statuses carried by a received line.
const (
	LitigeNone   = "none"
	LitigeCreate = "create_litige"
)

// Souhaits de résolution d'un litige.
const (
	LitigeSouhaitRemboursement = "remboursement"
	LitigeSouhaitRetour        = "retour_fournisseur"
	LitigeSouhaitAutre         = "autre"
)

// Order is a supplier-scoped purchase request. A cart spanning N suppliers
// yields N orders; orders are only mutated through status transitions and
// line-item reception, never deleted.
type Order struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	ClientID         uint        `gorm:"not null;index" json:"client_id"`
	ClientName       string      `json:"client_name"`
	SupplierID       uint        `gorm:"not null;index" json:"supplier_id"`
	SupplierName     string      `json:"supplier_name"`
	ClientReference  string      `json:"client_reference,omitempty"` // référence interne du client, optionnelle
	Items            []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Status           string      `gorm:"not null;default:'ordered'" json:"status"`
	TotalHT          float64     `gorm:"not null" json:"total_ht"`
	TotalTTC         float64     `gorm:"not null" json:"total_ttc"`
	ShippingCost     float64     `json:"shipping_cost"`
	DeliveryDate     *time.Time  `json:"delivery_date,omitempty"`
	DeliveryComment  string      `json:"delivery_comment,omitempty"`
	NotificationSent bool        `json:"notification_sent"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// OrderItem is one ordered line plus its reception sub-state. Received is
// monotonic (false→true) and idempotent; the litige block is only meaningful
// once Received is true.
type OrderItem struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	OrderID          uint     `gorm:"not null;index" json:"order_id"`
	ProductID        uint     `gorm:"not null;index" json:"product_id"`
	ProductName      string   `json:"product_name"`
	Quantity         float64  `gorm:"not null" json:"quantity"`
	UnitPriceHT      float64  `gorm:"not null" json:"unit_price_ht"` // prix unitaire HT figé à la commande
	PackagingUnit    string   `json:"packaging_unit,omitempty"`
	Received         bool     `gorm:"not null;default:false" json:"received"`
	ReceivedQuantity *float64 `json:"received_quantity,omitempty"`
	ReceivedPrice    *float64 `json:"received_price,omitempty"`
	LitigeStatus     string   `gorm:"not null;default:'none'" json:"litige_status"`
	LitigeSouhait    string   `json:"litige_souhait,omitempty"`
	LitigeComment    string   `json:"litige_comment,omitempty"`
}

// UnreceivedItems returns the lines not yet received, in order.
func (o *Order) UnreceivedItems() []OrderItem {
	var open []OrderItem
	for _, it := range o.Items {
		if !it.Received {
			open = append(open, it)
		}
	}
	return open
}
