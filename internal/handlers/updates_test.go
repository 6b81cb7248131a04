package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valoris/ordering-app/internal/models"
)

func TestUpdateSubmitReviewFlow(t *testing.T) {
	db := setupTestDB(t)
	h := newUpdateFixture(t, db)

	w := postJSON(t, h.Submit, "/updates", `{"product_id":2,"supplier_id":20,"changes":{"prix_ht":1.05},"submitted_by":"fournisseur"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}
	var req models.ProductUpdateRequest
	if err := json.Unmarshal(w.Body.Bytes(), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Status != models.UpdateStatusPending || req.Changes != `{"prix_ht":1.05}` {
		t.Fatalf("submission not recorded: %+v", req)
	}

	// Reject without reason is a 400, with reason a 200.
	body := fmt.Sprintf(`{"id":%d,"reviewer":"admin","reason":""}`, req.ID)
	w2 := postJSON(t, h.Reject, "/updates/reject", body)
	if w2.Code != http.StatusBadRequest || !strings.Contains(w2.Body.String(), "reason_required") {
		t.Fatalf("expected reason_required 400, got %d: %s", w2.Code, w2.Body.String())
	}
	body = fmt.Sprintf(`{"id":%d,"reviewer":"admin","reason":"prix incohérent"}`, req.ID)
	if w := postJSON(t, h.Reject, "/updates/reject", body); w.Code != http.StatusOK {
		t.Fatalf("reject: %d: %s", w.Code, w.Body.String())
	}

	// A reviewed request cannot be approved afterwards.
	body = fmt.Sprintf(`{"id":%d,"reviewer":"admin"}`, req.ID)
	w3 := postJSON(t, h.Approve, "/updates/approve", body)
	if w3.Code != http.StatusConflict || !strings.Contains(w3.Body.String(), "already_reviewed") {
		t.Fatalf("expected already_reviewed 409, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestUpdateBatchEndpoints(t *testing.T) {
	db := setupTestDB(t)
	h := newUpdateFixture(t, db)

	w := postJSON(t, h.CreateBatch, "/updates/batches", `{"filename":"tarifs-2026.csv","supplier_id":20}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}
	var batch models.ImportBatch
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for i := 1; i <= 2; i++ {
		body := fmt.Sprintf(`{"product_id":%d,"supplier_id":20,"changes":{"prix_ht":1.2},"source":"import","batch_id":%d}`, i, batch.ID)
		if w := postJSON(t, h.Submit, "/updates", body); w.Code != http.StatusCreated {
			t.Fatalf("submit %d: %d: %s", i, w.Code, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/updates/batches?id=%d", batch.ID), nil)
	rec := httptest.NewRecorder()
	h.GetBatch(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var loaded models.ImportBatch
	if err := json.Unmarshal(rec.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.TotalUpdates != 2 || loaded.PendingUpdates != 2 {
		t.Fatalf("batch counters wrong: %+v", loaded)
	}

	req = httptest.NewRequest(http.MethodGet, "/updates/batches?id=9999", nil)
	rec = httptest.NewRecorder()
	h.GetBatch(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateListEndpoints(t *testing.T) {
	db := setupTestDB(t)
	h := newUpdateFixture(t, db)

	if w := postJSON(t, h.Submit, "/updates", `{"product_id":1,"supplier_id":10,"changes":{"nom":"Carottes"}}`); w.Code != http.StatusCreated {
		t.Fatalf("submit: %d", w.Code)
	}
	if w := postJSON(t, h.Submit, "/updates", `{"product_id":2,"supplier_id":20,"changes":{"prix_ht":1.2}}`); w.Code != http.StatusCreated {
		t.Fatalf("submit: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/updates/pending", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	var list struct {
		Items []models.ProductUpdateRequest `json:"items"`
		Total int                           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("expected 2 pending, got %d", list.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/updates?supplier_id=20", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Items[0].SupplierID != 20 {
		t.Fatalf("supplier scope wrong: %+v", list)
	}

	if w := postJSON(t, h.Submit, "/updates", `{"product_id":0,"supplier_id":20,"changes":{}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}
