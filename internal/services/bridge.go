package services

import (
	"fmt"

	"github.com/valoris/ordering-app/internal/catalog"
	"github.com/valoris/ordering-app/internal/events"

	"github.com/rs/zerolog"
)

// ReceptionBridge is the only path by which order activity reaches the stock
// ledger. It consumes delivered-order notifications and drives stock-in
// transactions, one per delivered line, converting ordered quantities with
// the catalog packaging coefficient. Strictly one-directional: it never calls
// back into the order side.
type ReceptionBridge struct {
	Inventory *InventoryService
	Catalog   catalog.Finder
	Log       zerolog.Logger
}

func NewReceptionBridge(inv *InventoryService, cat catalog.Finder, log zerolog.Logger) *ReceptionBridge {
	return &ReceptionBridge{Inventory: inv, Catalog: cat, Log: log}
}

// Register subscribes the bridge on the dispatcher.
func (b *ReceptionBridge) Register(d *events.Dispatcher) {
	d.SubscribeDelivered(b.HandleDelivered)
}

// HandleDelivered applies one stock-in per delivered line. The reception path
// is expected to succeed (lines are catalog-verified at order creation); a
// failure here is surfaced as a warning, never as an abort of the delivery.
func (b *ReceptionBridge) HandleDelivered(evt events.OrderDelivered) {
	orderID := evt.OrderID
	for _, line := range evt.Lines {
		qty := line.Quantity * b.packagingCoefficient(line.ProductID)
		reason := fmt.Sprintf("Réception commande #%d (%s)", evt.OrderID, evt.SupplierName)
		if err := b.Inventory.AddStock(line.ProductID, qty, reason, &orderID, evt.ClientName); err != nil {
			b.Log.Warn().
				Err(err).
				Uint("order_id", evt.OrderID).
				Uint("product_id", line.ProductID).
				Msg("stock-in failed for delivered line")
		}
	}
}

// packagingCoefficient defaults to 1 when the product is missing from the
// catalog or carries no coefficient.
func (b *ReceptionBridge) packagingCoefficient(productID uint) float64 {
	p, err := b.Catalog.FindProduct(productID)
	if err != nil || p.PackagingCoefficient <= 0 {
		return 1
	}
	return p.PackagingCoefficient
}
