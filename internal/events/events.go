// Package events carries the one notification crossing the order/inventory
// boundary. The payload types are owned here so the inventory side never
// imports order types; delivery is synchronous and in-process, so a stock-in
// triggered by a delivery completes before the triggering call returns.
package events

import "sync"

// DeliveredLine is one order line that was still open when the order was
// marked delivered. Quantity is the ordered quantity, before any packaging
// coefficient conversion.
type DeliveredLine struct {
	ProductID   uint
	ProductName string
	Quantity    float64
}

// OrderDelivered is broadcast once per delivery, carrying the lines that were
// unreceived before the delivering call so stock-in is applied exactly once
// per line.
type OrderDelivered struct {
	OrderID      uint
	SupplierID   uint
	SupplierName string
	ClientName   string
	Lines        []DeliveredLine
}

// DeliveredHandler reacts to an OrderDelivered notification.
type DeliveredHandler func(OrderDelivered)

// Dispatcher fans an OrderDelivered out to its subscribers, in registration
// order, on the publisher's goroutine. Publishing with no subscribers is a
// no-op.
type Dispatcher struct {
	mu       sync.Mutex
	handlers []DeliveredHandler
}

func NewDispatcher() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) SubscribeDelivered(h DeliveredHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) PublishDelivered(evt OrderDelivered) {
	d.mu.Lock()
	handlers := make([]DeliveredHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}
