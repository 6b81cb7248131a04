package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/valoris/ordering-app/internal/models"
)

func TestStockAddRemoveFlow(t *testing.T) {
	db := setupTestDB(t)
	h := newInventoryFixture(t, db)

	w := postJSON(t, h.Add, "/stock/add", `{"product_id":1,"quantity":20,"reason":"inventaire initial","created_by":"cuisine"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var stock struct {
		ProductID    uint    `json:"product_id"`
		CurrentStock float64 `json:"current_stock"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stock); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stock.CurrentStock != 20 {
		t.Fatalf("expected stock 20, got %v", stock.CurrentStock)
	}

	w = postJSON(t, h.Remove, "/stock/remove", `{"product_id":1,"quantity":16,"reason":"service cantine"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stock); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stock.CurrentStock != 4 {
		t.Fatalf("expected stock 4, got %v", stock.CurrentStock)
	}

	// Over-withdrawal conflicts instead of clamping silently.
	w = postJSON(t, h.Remove, "/stock/remove", `{"product_id":1,"quantity":100,"reason":"service cantine"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", w.Code, w.Body.String())
	}
}

func TestStockValidation(t *testing.T) {
	db := setupTestDB(t)
	h := newInventoryFixture(t, db)

	cases := []struct {
		name string
		body string
	}{
		{"missing product", `{"quantity":5,"reason":"x"}`},
		{"zero quantity", `{"product_id":1,"quantity":0,"reason":"x"}`},
		{"negative quantity", `{"product_id":1,"quantity":-3,"reason":"x"}`},
		{"missing reason", `{"product_id":1,"quantity":5}`},
	}
	for _, tc := range cases {
		if w := postJSON(t, h.Add, "/stock/add", tc.body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400 got %d", tc.name, w.Code)
		}
	}

	// Removing from a product with no ledger entry is 404, not a silent create.
	if w := postJSON(t, h.Remove, "/stock/remove", `{"product_id":1,"quantity":1,"reason":"service"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestStockAlertsEndpoints(t *testing.T) {
	db := setupTestDB(t)
	h := newInventoryFixture(t, db)

	if w := postJSON(t, h.Add, "/stock/add", `{"product_id":1,"quantity":3,"reason":"reliquat"}`); w.Code != http.StatusOK {
		t.Fatalf("add: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/stock/alerts", nil)
	w := httptest.NewRecorder()
	h.Alerts(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var alerts struct {
		Items []models.InventoryAlert `json:"items"`
		Total int                     `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if alerts.Total != 1 || alerts.Items[0].Severity != models.AlertSeverityLow {
		t.Fatalf("expected one low alert, got %+v", alerts)
	}

	body := fmt.Sprintf(`{"alert_id":%q}`, alerts.Items[0].ID)
	if w := postJSON(t, h.AcknowledgeAlert, "/stock/alerts/ack", body); w.Code != http.StatusOK {
		t.Fatalf("ack: %d", w.Code)
	}
	if w := postJSON(t, h.AcknowledgeAlert, "/stock/alerts/ack", `{"alert_id":"inconnu"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestStockTransactionsAndSync(t *testing.T) {
	db := setupTestDB(t)
	h := newInventoryFixture(t, db)

	// Sync creates one ledger entry per catalog product.
	w := postJSON(t, h.Sync, "/stock/sync", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sync: %d", w.Code)
	}
	var sync struct {
		Created int `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &sync); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sync.Created != 2 {
		t.Fatalf("expected 2 entries created, got %d", sync.Created)
	}

	if w := postJSON(t, h.Add, "/stock/add", `{"product_id":1,"quantity":10,"reason":"reception"}`); w.Code != http.StatusOK {
		t.Fatalf("add: %d", w.Code)
	}
	if w := postJSON(t, h.Adjust, "/stock/adjust", `{"product_id":1,"new_quantity":8,"reason":"casse"}`); w.Code != http.StatusOK {
		t.Fatalf("adjust: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/stock/transactions?product_id=1", nil)
	rec := httptest.NewRecorder()
	h.Transactions(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var txns struct {
		Items []models.InventoryTransaction `json:"items"`
		Total int                           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &txns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if txns.Total != 2 {
		t.Fatalf("expected 2 transactions, got %d", txns.Total)
	}
	if txns.Items[0].Type != models.TransactionIn || txns.Items[1].Type != models.TransactionAdjustment {
		t.Fatalf("history not oldest-first: %+v", txns.Items)
	}
	if txns.Items[1].Quantity != 2 {
		t.Fatalf("adjustment must log the absolute delta, got %v", txns.Items[1].Quantity)
	}
}
