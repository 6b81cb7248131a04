package server

import (
	"net/http"
	"time"

	"github.com/valoris/ordering-app/internal/catalog"
	"github.com/valoris/ordering-app/internal/config"
	"github.com/valoris/ordering-app/internal/events"
	"github.com/valoris/ordering-app/internal/handlers"
	"github.com/valoris/ordering-app/internal/httpx"
	"github.com/valoris/ordering-app/internal/services"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// New constructs the root http.Handler: services, the reception bridge and
// all routes with middlewares applied.
func New(db *gorm.DB, cfg config.Config, log zerolog.Logger) http.Handler {
	cat := catalog.NewStore(db)
	dispatcher := events.NewDispatcher()

	shippingSvc := services.NewShippingService(db)
	inventorySvc := services.NewInventoryService(db, cat, log)
	orderSvc := services.NewOrderService(db, cat, shippingSvc, dispatcher, cfg.VATRate, log)
	updateSvc := services.NewUpdateService(db)
	services.NewReceptionBridge(inventorySvc, cat, log).Register(dispatcher)

	oh := handlers.NewOrderHandler(orderSvc)
	ih := handlers.NewInventoryHandler(inventorySvc)
	uh := handlers.NewUpdateHandler(updateSvc)

	mux := http.NewServeMux()

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Perform a lightweight DB check (SELECT 1) – ignore detailed errors in body
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	// Order endpoints
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			oh.List(w, r)
		case http.MethodPost:
			oh.Create(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
	mux.HandleFunc("/orders/single", post(oh.CreateSingle))
	mux.HandleFunc("/orders/status", post(oh.UpdateStatus))
	mux.HandleFunc("/orders/receive", post(oh.Receive))
	mux.HandleFunc("/orders/receive-all", post(oh.ReceiveAll))

	// Stock ledger endpoints
	mux.HandleFunc("/stock", get(ih.Stock))
	mux.HandleFunc("/stock/add", post(ih.Add))
	mux.HandleFunc("/stock/remove", post(ih.Remove))
	mux.HandleFunc("/stock/adjust", post(ih.Adjust))
	mux.HandleFunc("/stock/threshold", post(ih.Threshold))
	mux.HandleFunc("/stock/alerts", get(ih.Alerts))
	mux.HandleFunc("/stock/alerts/ack", post(ih.AcknowledgeAlert))
	mux.HandleFunc("/stock/transactions", get(ih.Transactions))
	mux.HandleFunc("/stock/sync", post(ih.Sync))

	// Product update workflow endpoints
	mux.HandleFunc("/updates", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			uh.List(w, r)
		case http.MethodPost:
			uh.Submit(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
	mux.HandleFunc("/updates/pending", get(uh.List))
	mux.HandleFunc("/updates/approve", post(uh.Approve))
	mux.HandleFunc("/updates/reject", post(uh.Reject))
	mux.HandleFunc("/updates/batches", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			uh.GetBatch(w, r)
		case http.MethodPost:
			uh.CreateBatch(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})

	return withRecover(withLogging(mux, log), log)
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		h(w, r)
	}
}

func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func withRecover(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
