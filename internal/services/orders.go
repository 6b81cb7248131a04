package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/valoris/ordering-app/internal/catalog"
	"github.com/valoris/ordering-app/internal/events"
	"github.com/valoris/ordering-app/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("commande introuvable")
	ErrOrderItemNotFound = errors.New("ligne de commande introuvable")
	ErrUnknownProduct    = errors.New("produit absent du catalogue")
	ErrInvalidTransition = errors.New("transition de statut non autorisée")
)

// statusTransitions is the explicit table replacing the legacy any-to-any
// behaviour: received and cancelled are terminal.
var statusTransitions = map[string][]string{
	models.OrderStatusOrdered:   {models.OrderStatusReceived, models.OrderStatusCancelled},
	models.OrderStatusReceived:  {},
	models.OrderStatusCancelled: {},
}

// CartLine is one product/quantity pair from the checkout cart.
type CartLine struct {
	ProductID uint
	Quantity  float64
}

// ClientInfo identifies the ordering client.
type ClientInfo struct {
	ID   uint
	Name string
}

// LitigeInput flags a dispute on a received line. Dispute creation is an
// explicit caller decision, never inferred from quantity or price variance.
type LitigeInput struct {
	Souhait string
	Comment string
}

// ReceptionInput optionally overrides what actually arrived for a line.
// Nil quantity/price mean "received exactly as ordered".
type ReceptionInput struct {
	Quantity *float64
	Price    *float64
	Litige   *LitigeInput
}

// CreateOptions carries the per-checkout extras.
type CreateOptions struct {
	ClientReference  string
	SendEmail        bool
	DeliveryDates    map[uint]time.Time
	DeliveryComments map[uint]string
}

// OrderService owns the order aggregate: creation from a cart, the status
// machine and line-item reception. Reception never touches stock directly;
// the delivered event is the only path from orders to inventory.
type OrderService struct {
	DB       *gorm.DB
	Catalog  catalog.Finder
	Shipping *ShippingService
	Events   *events.Dispatcher
	VATRate  float64
	Log      zerolog.Logger

	mu sync.Mutex
}

func NewOrderService(db *gorm.DB, cat catalog.Finder, shipping *ShippingService, disp *events.Dispatcher, vatRate float64, log zerolog.Logger) *OrderService {
	return &OrderService{DB: db, Catalog: cat, Shipping: shipping, Events: disp, VATRate: vatRate, Log: log}
}

// CreateOrders splits a checkout cart into one order per supplier. Line
// prices and names are frozen from the catalog at creation time. A supplier
// key mapping to zero lines is skipped silently.
func (s *OrderService) CreateOrders(cart map[uint][]CartLine, client ClientInfo, opts CreateOptions) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplierIDs := make([]uint, 0, len(cart))
	for id := range cart {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Slice(supplierIDs, func(i, j int) bool { return supplierIDs[i] < supplierIDs[j] })

	var created []models.Order
	for _, supplierID := range supplierIDs {
		lines := cart[supplierID]
		if len(lines) == 0 {
			continue
		}
		order, err := s.buildOrder(supplierID, lines, client, opts)
		if err != nil {
			return nil, err
		}
		if err := s.DB.Create(order).Error; err != nil {
			return nil, fmt.Errorf("create order for supplier %d: %w", supplierID, err)
		}
		created = append(created, *order)
	}
	return created, nil
}

// CreateOrder is the single-supplier variant of CreateOrders.
func (s *OrderService) CreateOrder(supplierID uint, lines []CartLine, client ClientInfo, opts CreateOptions) (*models.Order, error) {
	orders, err := s.CreateOrders(map[uint][]CartLine{supplierID: lines}, client, opts)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: panier vide pour le fournisseur %d", ErrUnknownProduct, supplierID)
	}
	return &orders[0], nil
}

func (s *OrderService) buildOrder(supplierID uint, lines []CartLine, client ClientInfo, opts CreateOptions) (*models.Order, error) {
	order := &models.Order{
		ClientID:         client.ID,
		ClientName:       client.Name,
		SupplierID:       supplierID,
		ClientReference:  opts.ClientReference,
		Status:           models.OrderStatusOrdered,
		NotificationSent: opts.SendEmail,
	}
	if d, ok := opts.DeliveryDates[supplierID]; ok {
		date := d
		order.DeliveryDate = &date
	}
	if c, ok := opts.DeliveryComments[supplierID]; ok {
		order.DeliveryComment = c
	}
	subtotal := 0.0
	for _, line := range lines {
		p, err := s.Catalog.FindProduct(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, line.ProductID)
		}
		if order.SupplierName == "" && p.SupplierID == supplierID {
			order.SupplierName = p.SupplierName
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      line.Quantity,
			UnitPriceHT:   p.PriceHT,
			PackagingUnit: p.PackagingUnit,
			LitigeStatus:  models.LitigeNone,
		})
		subtotal += p.PriceHT * line.Quantity
	}
	shipping, err := s.Shipping.Cost(supplierID, subtotal)
	if err != nil {
		return nil, err
	}
	order.ShippingCost = shipping
	order.TotalHT = subtotal + shipping
	order.TotalTTC = order.TotalHT * (1 + s.VATRate)
	return order, nil
}

// UpdateStatus applies the explicit transition table. Moving an order to
// received through this command receives all open lines first, exactly like
// ReceiveAll.
func (s *OrderService) UpdateStatus(orderID uint, status string) error {
	if status == models.OrderStatusReceived {
		_, err := s.ReceiveAll(orderID)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.load(orderID)
	if err != nil {
		return err
	}
	if order.Status == status {
		return nil
	}
	if !transitionAllowed(order.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}
	order.Status = status
	if err := s.DB.Save(order).Error; err != nil {
		return fmt.Errorf("update status of order %d: %w", orderID, err)
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReceiveItem records what arrived for one line. Already-received lines are a
// no-op. When the last open line closes, the order flips to received and one
// delivered event is published carrying every line (none has reached the
// ledger yet, so the full set is exactly the not-yet-stocked set).
func (s *OrderService) ReceiveItem(orderID, productID uint, input *ReceptionInput) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: réception sur commande annulée", ErrInvalidTransition)
	}
	idx := -1
	for i := range order.Items {
		if order.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: commande %d, produit %d", ErrOrderItemNotFound, orderID, productID)
	}
	item := &order.Items[idx]
	if item.Received {
		return order, nil
	}
	receiveLine(item, input)
	if err := s.DB.Save(item).Error; err != nil {
		return nil, fmt.Errorf("save reception of product %d on order %d: %w", productID, orderID, err)
	}
	if len(order.UnreceivedItems()) == 0 {
		if err := s.markDelivered(order, order.Items); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ReceiveAll marks every open line received at ordered values, then publishes
// one delivered event carrying the lines that were open before the call. An
// order with zero open lines triggers neither event nor mutation.
func (s *OrderService) ReceiveAll(orderID uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: réception sur commande annulée", ErrInvalidTransition)
	}
	open := order.UnreceivedItems()
	if len(open) == 0 {
		return order, nil
	}
	for i := range order.Items {
		if order.Items[i].Received {
			continue
		}
		receiveLine(&order.Items[i], nil)
		if err := s.DB.Save(&order.Items[i]).Error; err != nil {
			return nil, fmt.Errorf("save reception of product %d on order %d: %w", order.Items[i].ProductID, orderID, err)
		}
	}
	if err := s.markDelivered(order, open); err != nil {
		return nil, err
	}
	return order, nil
}

// receiveLine applies a reception to one line: monotonic received flag,
// quantity/price defaulting to the ordered values, explicit litige block.
func receiveLine(item *models.OrderItem, input *ReceptionInput) {
	item.Received = true
	qty := item.Quantity
	price := item.UnitPriceHT
	if input != nil {
		if input.Quantity != nil {
			qty = *input.Quantity
		}
		if input.Price != nil {
			price = *input.Price
		}
		if input.Litige != nil {
			item.LitigeStatus = models.LitigeCreate
			item.LitigeSouhait = input.Litige.Souhait
			item.LitigeComment = input.Litige.Comment
		}
	}
	item.ReceivedQuantity = &qty
	item.ReceivedPrice = &price
}

// markDelivered flips the order to received and broadcasts the delivered
// notification. The event runs synchronously: the ledger stock-in completes
// before the caller returns.
func (s *OrderService) markDelivered(order *models.Order, stockLines []models.OrderItem) error {
	order.Status = models.OrderStatusReceived
	if err := s.DB.Save(order).Error; err != nil {
		return fmt.Errorf("mark order %d received: %w", order.ID, err)
	}
	evt := events.OrderDelivered{
		OrderID:      order.ID,
		SupplierID:   order.SupplierID,
		SupplierName: order.SupplierName,
		ClientName:   order.ClientName,
	}
	for _, it := range stockLines {
		evt.Lines = append(evt.Lines, events.DeliveredLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		})
	}
	s.Log.Info().Uint("order_id", order.ID).Int("lines", len(evt.Lines)).Msg("order delivered")
	s.Events.PublishDelivered(evt)
	return nil
}

// Get loads one order with its lines.
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	return s.load(orderID)
}

// OrdersByClient lists a client's orders newest-first.
func (s *OrderService) OrdersByClient(clientID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.Preload("Items").Where("client_id = ?", clientID).Order("id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders for client %d: %w", clientID, err)
	}
	return orders, nil
}

// OrdersBySupplier lists a supplier's orders newest-first.
func (s *OrderService) OrdersBySupplier(supplierID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.Preload("Items").Where("supplier_id = ?", supplierID).Order("id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders for supplier %d: %w", supplierID, err)
	}
	return orders, nil
}

func (s *OrderService) load(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return &order, nil
}
