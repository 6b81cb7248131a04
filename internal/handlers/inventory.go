package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/valoris/ordering-app/internal/httpx"
	"github.com/valoris/ordering-app/internal/services"
)

// InventoryHandler exposes the stock ledger command/query surface.
// Non-positive quantities and missing reasons are rejected here, at the
// command boundary, before the service runs.
type InventoryHandler struct {
	Svc *services.InventoryService
}

func NewInventoryHandler(svc *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{Svc: svc}
}

type stockMutationReq struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	Reason    string  `json:"reason"`
	OrderID   *uint   `json:"order_id,omitempty"`
	CreatedBy string  `json:"created_by,omitempty"`
}

func (req *stockMutationReq) validate() map[string]string {
	details := map[string]string{}
	if req.ProductID == 0 {
		details["product_id"] = "required"
	}
	if req.Quantity <= 0 {
		details["quantity"] = "must_be_positive"
	}
	if req.Reason == "" {
		details["reason"] = "required"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// Add: POST /stock/add
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req stockMutationReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if details := req.validate(); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", details)
		return
	}
	if err := h.Svc.AddStock(req.ProductID, req.Quantity, req.Reason, req.OrderID, req.CreatedBy); err != nil {
		writeStockError(w, err)
		return
	}
	h.writeStock(w, req.ProductID)
}

// Remove: POST /stock/remove
func (h *InventoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req stockMutationReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if details := req.validate(); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", details)
		return
	}
	if err := h.Svc.RemoveStock(req.ProductID, req.Quantity, req.Reason, req.CreatedBy); err != nil {
		writeStockError(w, err)
		return
	}
	h.writeStock(w, req.ProductID)
}

// Adjust: POST /stock/adjust – sets the level directly.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   uint    `json:"product_id"`
		NewQuantity float64 `json:"new_quantity"`
		Reason      string  `json:"reason"`
		CreatedBy   string  `json:"created_by,omitempty"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ProductID == 0 || req.Reason == "" || req.NewQuantity < 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"product_id": "required", "reason": "required", "new_quantity": "must_not_be_negative"})
		return
	}
	if err := h.Svc.AdjustStock(req.ProductID, req.NewQuantity, req.Reason, req.CreatedBy); err != nil {
		writeStockError(w, err)
		return
	}
	h.writeStock(w, req.ProductID)
}

// Threshold: POST /stock/threshold – configuration only, no alert recompute.
func (h *InventoryHandler) Threshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID uint    `json:"product_id"`
		Threshold float64 `json:"threshold"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ProductID == 0 || req.Threshold < 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"product_id": "required", "threshold": "must_not_be_negative"})
		return
	}
	if err := h.Svc.SetAlertThreshold(req.ProductID, req.Threshold); err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product_id": req.ProductID, "threshold": req.Threshold})
}

// Stock: GET /stock?product_id= – current level of one product, or the whole
// ledger without the filter.
func (h *InventoryHandler) Stock(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("product_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"product_id": "invalid"})
			return
		}
		h.writeStock(w, uint(id))
		return
	}
	items, err := h.Svc.Items()
	if err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// Alerts: GET /stock/alerts – unacknowledged alerts only.
func (h *InventoryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Svc.ActiveAlerts()
	if err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": alerts, "total": len(alerts)})
}

// AcknowledgeAlert: POST /stock/alerts/ack
func (h *InventoryHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AlertID string `json:"alert_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.AlertID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"alert_id": "required"})
		return
	}
	if err := h.Svc.AcknowledgeAlert(req.AlertID); err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"alert_id": req.AlertID, "status": "acknowledged"})
}

// Transactions: GET /stock/transactions?product_id= – append-only history,
// oldest-first.
func (h *InventoryHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	var productID uint
	if v := r.URL.Query().Get("product_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"product_id": "invalid"})
			return
		}
		productID = uint(id)
	}
	txns, err := h.Svc.History(productID)
	if err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": txns, "total": len(txns)})
}

// Sync: POST /stock/sync – create missing ledger entries from the catalog.
func (h *InventoryHandler) Sync(w http.ResponseWriter, r *http.Request) {
	created, err := h.Svc.EnsureItems()
	if err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *InventoryHandler) writeStock(w http.ResponseWriter, productID uint) {
	stock, err := h.Svc.CurrentStock(productID)
	if err != nil {
		writeStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product_id": productID, "current_stock": stock})
}

func writeStockError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrAlertNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.JSONError(w, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
