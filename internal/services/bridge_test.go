package services

import (
	"strings"
	"testing"

	"github.com/valoris/ordering-app/internal/events"
	"github.com/valoris/ordering-app/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func newTestBridge(t *testing.T, db *gorm.DB) (*ReceptionBridge, *InventoryService, *events.Dispatcher) {
	t.Helper()
	inv := newTestInventory(t, db)
	bridge := NewReceptionBridge(inv, testCatalog(), zerolog.Nop())
	dispatcher := events.NewDispatcher()
	bridge.Register(dispatcher)
	return bridge, inv, dispatcher
}

func TestBridgeAppliesPackagingCoefficient(t *testing.T) {
	db := setupTestDB(t)
	_, inv, dispatcher := newTestBridge(t, db)

	// 3 cartons of 25 kg each enter the ledger as 75 kg.
	dispatcher.PublishDelivered(events.OrderDelivered{
		OrderID:      12,
		SupplierID:   20,
		SupplierName: "Minoterie Dupuis",
		ClientName:   "Collège Jean Moulin",
		Lines:        []events.DeliveredLine{{ProductID: 2, ProductName: "Farine T65", Quantity: 3}},
	})

	stock, err := inv.CurrentStock(2)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if stock != 75 {
		t.Fatalf("expected 75 after coefficient conversion, got %v", stock)
	}
	txns, _ := inv.History(2)
	if len(txns) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(txns))
	}
	txn := txns[0]
	if txn.Type != models.TransactionIn || txn.Quantity != 75 {
		t.Fatalf("unexpected ledger entry: %+v", txn)
	}
	if txn.OrderID == nil || *txn.OrderID != 12 {
		t.Fatalf("ledger entry must reference the order: %+v", txn)
	}
	if !strings.Contains(txn.Reason, "#12") || !strings.Contains(txn.Reason, "Minoterie Dupuis") {
		t.Fatalf("reason must name order and supplier: %q", txn.Reason)
	}
}

func TestBridgeDefaultsCoefficientToOne(t *testing.T) {
	db := setupTestDB(t)
	_, inv, dispatcher := newTestBridge(t, db)

	dispatcher.PublishDelivered(events.OrderDelivered{
		OrderID: 5,
		Lines:   []events.DeliveredLine{{ProductID: 3, ProductName: "Beurre doux", Quantity: 4}},
	})

	stock, err := inv.CurrentStock(3)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if stock != 4 {
		t.Fatalf("expected 4 without coefficient, got %v", stock)
	}
}

func TestBridgeMissingProductDoesNotAbortDelivery(t *testing.T) {
	db := setupTestDB(t)
	_, inv, dispatcher := newTestBridge(t, db)

	// The unknown line still stocks in at coefficient 1 with a minimal
	// ledger entry; the catalog-backed line behind it is untouched.
	dispatcher.PublishDelivered(events.OrderDelivered{
		OrderID: 8,
		Lines: []events.DeliveredLine{
			{ProductID: 999, ProductName: "Produit retiré", Quantity: 2},
			{ProductID: 1, ProductName: "Carottes bio", Quantity: 1},
		},
	})

	if stock, _ := inv.CurrentStock(999); stock != 2 {
		t.Fatalf("unknown product still stocks in at coefficient 1, got %v", stock)
	}
	stock, err := inv.CurrentStock(1)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if stock != 5 {
		t.Fatalf("expected 5 (1 sachet × coefficient 5), got %v", stock)
	}
}

func TestOrderReceptionFlowsIntoLedger(t *testing.T) {
	db := setupTestDB(t)
	_, inv, dispatcher := newTestBridge(t, db)
	orderSvc := NewOrderService(db, testCatalog(), NewShippingService(db), dispatcher, 0.20, zerolog.Nop())

	orders, err := orderSvc.CreateOrders(map[uint][]CartLine{20: {{ProductID: 2, Quantity: 2}}}, ClientInfo{ID: 7, Name: "Collège Jean Moulin"}, CreateOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := orderSvc.ReceiveAll(orders[0].ID); err != nil {
		t.Fatalf("receive all: %v", err)
	}

	// Synchronous contract: stock is visible as soon as ReceiveAll returns.
	stock, err := inv.CurrentStock(2)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if stock != 50 {
		t.Fatalf("expected 50 (2 × coefficient 25), got %v", stock)
	}

	// ReceiveAll on the received order is a no-op: nothing stocks in twice.
	if _, err := orderSvc.ReceiveAll(orders[0].ID); err != nil {
		t.Fatalf("re-receive all: %v", err)
	}
	if stock, _ = inv.CurrentStock(2); stock != 50 {
		t.Fatalf("re-delivery must not stock in again, got %v", stock)
	}
	txns, _ := inv.History(2)
	if len(txns) != 1 {
		t.Fatalf("expected a single stock-in, got %d", len(txns))
	}
}
