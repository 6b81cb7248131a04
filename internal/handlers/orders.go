package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/valoris/ordering-app/internal/httpx"
	"github.com/valoris/ordering-app/internal/services"
)

// OrderHandler exposes the order command/query surface as JSON endpoints.
type OrderHandler struct {
	Svc *services.OrderService
}

func NewOrderHandler(svc *services.OrderService) *OrderHandler { return &OrderHandler{Svc: svc} }

type cartItemReq struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type supplierGroupReq struct {
	SupplierID      uint          `json:"supplier_id"`
	Items           []cartItemReq `json:"items"`
	DeliveryDate    string        `json:"delivery_date,omitempty"` // RFC 3339
	DeliveryComment string        `json:"delivery_comment,omitempty"`
}

type createOrdersReq struct {
	ClientID        uint               `json:"client_id"`
	ClientName      string             `json:"client_name"`
	ClientReference string             `json:"client_reference,omitempty"`
	SendEmail       bool               `json:"send_email,omitempty"`
	Groups          []supplierGroupReq `json:"groups"`
}

// Create: POST /orders – one order per supplier group.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrdersReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ClientID == 0 || len(req.Groups) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"client_id": "required", "groups": "required"})
		return
	}
	cart := make(map[uint][]services.CartLine, len(req.Groups))
	opts := services.CreateOptions{
		ClientReference:  req.ClientReference,
		SendEmail:        req.SendEmail,
		DeliveryDates:    map[uint]time.Time{},
		DeliveryComments: map[uint]string{},
	}
	for _, g := range req.Groups {
		if g.SupplierID == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"supplier_id": "required"})
			return
		}
		lines, detail := toCartLines(g.Items)
		if detail != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", detail)
			return
		}
		cart[g.SupplierID] = lines
		if g.DeliveryDate != "" {
			d, err := time.Parse(time.RFC3339, g.DeliveryDate)
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"delivery_date": "invalid"})
				return
			}
			opts.DeliveryDates[g.SupplierID] = d
		}
		if g.DeliveryComment != "" {
			opts.DeliveryComments[g.SupplierID] = g.DeliveryComment
		}
	}
	orders, err := h.Svc.CreateOrders(cart, services.ClientInfo{ID: req.ClientID, Name: req.ClientName}, opts)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"orders": orders, "count": len(orders)})
}

type createSingleReq struct {
	SupplierID      uint          `json:"supplier_id"`
	ClientID        uint          `json:"client_id"`
	ClientName      string        `json:"client_name"`
	ClientReference string        `json:"client_reference,omitempty"`
	Items           []cartItemReq `json:"items"`
}

// CreateSingle: POST /orders/single – one supplier, one order.
func (h *OrderHandler) CreateSingle(w http.ResponseWriter, r *http.Request) {
	var req createSingleReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.SupplierID == 0 || req.ClientID == 0 || len(req.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"supplier_id": "required", "client_id": "required", "items": "required"})
		return
	}
	lines, detail := toCartLines(req.Items)
	if detail != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", detail)
		return
	}
	order, err := h.Svc.CreateOrder(req.SupplierID, lines, services.ClientInfo{ID: req.ClientID, Name: req.ClientName}, services.CreateOptions{ClientReference: req.ClientReference})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// List: GET /orders?client_id=|supplier_id= – scoped order queries.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("client_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"client_id": "invalid"})
			return
		}
		orders, err := h.Svc.OrdersByClient(uint(id))
		if err != nil {
			writeOrderError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": len(orders)})
		return
	}
	if v := r.URL.Query().Get("supplier_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"supplier_id": "invalid"})
			return
		}
		orders, err := h.Svc.OrdersBySupplier(uint(id))
		if err != nil {
			writeOrderError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": len(orders)})
		return
	}
	httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"client_id": "or supplier_id required"})
}

// UpdateStatus: POST /orders/status – explicit transition table applies.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID uint   `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.OrderID == 0 || req.Status == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"order_id": "required", "status": "required"})
		return
	}
	if err := h.Svc.UpdateStatus(req.OrderID, req.Status); err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

type litigeReq struct {
	Souhait string `json:"souhait"`
	Comment string `json:"comment,omitempty"`
}

type receiveReq struct {
	OrderID   uint       `json:"order_id"`
	ProductID uint       `json:"product_id"`
	Quantity  *float64   `json:"quantity,omitempty"`
	Price     *float64   `json:"price,omitempty"`
	Litige    *litigeReq `json:"litige,omitempty"`
}

// Receive: POST /orders/receive – record the reception of one line.
func (h *OrderHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.OrderID == 0 || req.ProductID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"order_id": "required", "product_id": "required"})
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"quantity": "must_be_positive"})
		return
	}
	var input *services.ReceptionInput
	if req.Quantity != nil || req.Price != nil || req.Litige != nil {
		input = &services.ReceptionInput{Quantity: req.Quantity, Price: req.Price}
		if req.Litige != nil {
			input.Litige = &services.LitigeInput{Souhait: req.Litige.Souhait, Comment: req.Litige.Comment}
		}
	}
	order, err := h.Svc.ReceiveItem(req.OrderID, req.ProductID, input)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// ReceiveAll: POST /orders/receive-all – receive every open line at ordered values.
func (h *OrderHandler) ReceiveAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID uint `json:"order_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.OrderID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"order_id": "required"})
		return
	}
	order, err := h.Svc.ReceiveAll(req.OrderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func toCartLines(items []cartItemReq) ([]services.CartLine, map[string]string) {
	lines := make([]services.CartLine, 0, len(items))
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return nil, map[string]string{"items": "invalid_product_or_quantity"}
		}
		lines = append(lines, services.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines, nil
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrOrderItemNotFound):
		httpx.JSONError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, services.ErrUnknownProduct):
		httpx.JSONError(w, http.StatusBadRequest, "unknown_product", err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
