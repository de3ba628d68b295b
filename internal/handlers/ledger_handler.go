package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/artisanhub/backend/internal/middleware"
	"github.com/artisanhub/backend/internal/models"
	"github.com/artisanhub/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1_048_576

type LedgerHandler struct {
	ledger     *services.LedgerService
	receipts   *services.ReceiptService
	settlement *services.SettlementService
}

func NewLedgerHandler(ledger *services.LedgerService, receipts *services.ReceiptService, settlement *services.SettlementService) *LedgerHandler {
	return &LedgerHandler{
		ledger:     ledger,
		receipts:   receipts,
		settlement: settlement,
	}
}

// Routes mounts the ledger endpoints on an authenticated router
func (h *LedgerHandler) Routes(r chi.Router) {
	r.Post("/transactions", h.CreateTransaction)
	r.Get("/transactions", h.ListTransactions)
	r.Get("/transactions/{txId}", h.GetTransaction)
	r.Patch("/transactions/{txId}/status", h.UpdateStatus)
	r.Get("/transactions/{txId}/receipt-qr", h.ReceiptQR)
	r.Get("/transactions/{txId}/settlement-status", h.SettlementStatus)
}

// CreateTransaction records a new ledger entry
// @Summary Create ledger entry
// @Description Record a new pending ledger entry. Status and timestamps in the body are ignored.
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateTransactionRequest true "Ledger entry"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /transactions [post]
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CreateTransactionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	if req.UserID == "" {
		req.UserID = userID
	}
	if req.UserID != userID {
		services.SendErrorResponse(w, "Cannot record entries for another user", http.StatusForbidden, nil)
		return
	}

	tx, err := h.ledger.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

// ListTransactions lists the caller's ledger entries
// @Summary List ledger entries
// @Description List the authenticated user's entries, newest first
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /transactions [get]
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	query := r.URL.Query()
	filter := models.TransactionFilter{
		UserID: userID,
		Status: models.TransactionStatus(query.Get("status")),
		Type:   models.TransactionType(query.Get("type")),
	}

	var err error
	if filter.Limit, err = intParam(query.Get("limit")); err != nil {
		services.SendErrorResponse(w, "limit must be an integer", http.StatusBadRequest, nil)
		return
	}
	if filter.Offset, err = intParam(query.Get("offset")); err != nil {
		services.SendErrorResponse(w, "offset must be an integer", http.StatusBadRequest, nil)
		return
	}

	txs, err := h.ledger.ListByUser(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

// GetTransaction returns one ledger entry
// @Summary Get ledger entry
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param txId path string true "Entry id"
// @Success 200 {object} models.Transaction
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{txId} [get]
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// UpdateStatus changes an entry's status
// @Summary Update ledger entry status
// @Description Move an entry to a new status, optionally recording a failure reason or transaction hash
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param txId path string true "Entry id"
// @Param request body models.StatusUpdate true "Status update"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /transactions/{txId}/status [patch]
func (h *LedgerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	current, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	var req models.StatusUpdate
	if !decodeBody(w, r, &req, true) {
		return
	}

	tx, err := h.ledger.UpdateStatus(r.Context(), current.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// ReceiptQR renders a QR code for the entry's receipt
// @Summary Receipt QR code
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param txId path string true "Entry id"
// @Success 200 {object} object{receiptUrl=string,qrImage=string}
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{txId}/receipt-qr [get]
func (h *LedgerHandler) ReceiptQR(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	link, image, err := h.receipts.GenerateReceiptQR(tx)
	if err != nil {
		log.Printf("[LEDGER] Receipt QR for %s failed: %v", tx.ID, err)
		services.SendErrorResponse(w, "Failed to generate receipt QR", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"receiptUrl": link,
		"qrImage":    image,
	})
}

// SettlementStatus returns the entry's ISO 20022 pacs.002 status report
// @Summary Settlement status report
// @Tags Transactions
// @Produce xml
// @Security BearerAuth
// @Param txId path string true "Entry id"
// @Success 200 {string} string "pacs.002 document"
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{txId}/settlement-status [get]
func (h *LedgerHandler) SettlementStatus(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	doc, err := h.settlement.StatusReportXML(tx)
	if err != nil {
		log.Printf("[LEDGER] Status report for %s failed: %v", tx.ID, err)
		services.SendErrorResponse(w, "Failed to build status report", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("X-Message-Type", services.StatusReportMessageType)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc)
}

// ownedEntry loads the entry named in the path and checks it belongs to the caller
func (h *LedgerHandler) ownedEntry(w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return nil, false
	}

	tx, err := h.ledger.Get(r.Context(), chi.URLParam(r, "txId"))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	if tx.UserID != userID {
		services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return nil, false
	}
	return tx, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
	case errors.Is(err, services.ErrNotFound):
		services.SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrVersionConflict), errors.Is(err, services.ErrInvalidTransition):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	default:
		log.Printf("[LEDGER] Request failed: %v", err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
