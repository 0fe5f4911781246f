package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bankdemo/transaction-service/internal/gateway"
	"github.com/bankdemo/transaction-service/internal/models"
	"github.com/bankdemo/transaction-service/internal/service"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transaction_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transaction_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	service *service.TransactionService
}

func NewHandler(svc *service.TransactionService) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/transactions"))
	defer timer.ObserveDuration()

	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/transactions")
		return
	}

	// Structural validation; policy checks live in the service.
	if req.FromAccount == 0 || req.ToAccount == 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "Source and destination accounts are required", "POST", "/transactions")
		return
	}
	if req.Amount.Sign() <= 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "Positive amount required", "POST", "/transactions")
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		code := statusForError(err)
		respondWithError(w, code, err.Error(), "POST", "/transactions")
		return
	}

	w.Header().Set("Location", "/api/v1/transactions/"+strconv.FormatInt(resp.TransactionID, 10))
	respondWithJSON(w, http.StatusCreated, resp, "POST", "/transactions")
}

func (h *Handler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid transaction id", "GET", "/transactions/{id}")
		return
	}

	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error(), "GET", "/transactions/{id}")
		return
	}
	respondWithJSON(w, http.StatusOK, resp, "GET", "/transactions/{id}")
}

func (h *Handler) ListTransactionsByAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(mux.Vars(r)["accountId"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "GET", "/transactions/account/{accountId}")
		return
	}

	// No transactions is an empty array, not an error.
	resp, err := h.service.ListByAccount(r.Context(), accountID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error(), "GET", "/transactions/account/{accountId}")
		return
	}
	respondWithJSON(w, http.StatusOK, resp, "GET", "/transactions/account/{accountId}")
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrAuthFailed),
		errors.Is(err, service.ErrPublishFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func respondWithError(w http.ResponseWriter, code int, message, method, endpoint string) {
	respondWithJSON(w, code, map[string]string{"error": message}, method, endpoint)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
