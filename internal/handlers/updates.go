package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valoris/ordering-app/internal/httpx"
	"github.com/valoris/ordering-app/internal/models"
	"github.com/valoris/ordering-app/internal/services"
)

// UpdateHandler exposes the product-update review workflow.
type UpdateHandler struct {
	Svc *services.UpdateService
}

func NewUpdateHandler(svc *services.UpdateService) *UpdateHandler { return &UpdateHandler{Svc: svc} }

type submitUpdateReq struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	SupplierID   uint            `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	Changes      json.RawMessage `json:"changes"`
	Source       string          `json:"source,omitempty"`
	BatchID      *uint           `json:"batch_id,omitempty"`
	SubmittedBy  string          `json:"submitted_by,omitempty"`
}

// Submit: POST /updates – file a pending change request.
func (h *UpdateHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitUpdateReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ProductID == 0 || req.SupplierID == 0 || len(req.Changes) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"product_id": "required", "supplier_id": "required", "changes": "required"})
		return
	}
	created, err := h.Svc.Submit(models.ProductUpdateRequest{
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		SupplierID:   req.SupplierID,
		SupplierName: req.SupplierName,
		Changes:      string(req.Changes),
		Source:       req.Source,
		BatchID:      req.BatchID,
		SubmittedBy:  req.SubmittedBy,
	})
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Approve: POST /updates/approve – terminal, no reason taken.
func (h *UpdateHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       uint   `json:"id"`
		Reviewer string `json:"reviewer,omitempty"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	updated, err := h.Svc.Approve(req.ID, req.Reviewer)
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Reject: POST /updates/reject – terminal, non-empty reason required.
func (h *UpdateHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       uint   `json:"id"`
		Reviewer string `json:"reviewer,omitempty"`
		Reason   string `json:"reason"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	updated, err := h.Svc.Reject(req.ID, req.Reviewer, req.Reason)
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// CreateBatch: POST /updates/batches
func (h *UpdateHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename   string `json:"filename,omitempty"`
		SupplierID uint   `json:"supplier_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	batch, err := h.Svc.CreateBatch(req.Filename, req.SupplierID)
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batch)
}

// GetBatch: GET /updates/batches?id=
func (h *UpdateHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 32)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	batch, err := h.Svc.Batch(uint(id))
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

// List: GET /updates/pending or GET /updates?supplier_id=
func (h *UpdateHandler) List(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("supplier_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"supplier_id": "invalid"})
			return
		}
		reqs, err := h.Svc.BySupplier(uint(id))
		if err != nil {
			writeUpdateError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": reqs, "total": len(reqs)})
		return
	}
	reqs, err := h.Svc.Pending()
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": reqs, "total": len(reqs)})
}

func writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrRequestNotFound), errors.Is(err, services.ErrBatchNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrRequestNotPending):
		httpx.JSONError(w, http.StatusConflict, "already_reviewed", err.Error())
	case errors.Is(err, services.ErrReasonRequired):
		httpx.JSONError(w, http.StatusBadRequest, "reason_required", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
