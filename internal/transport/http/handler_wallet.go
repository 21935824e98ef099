package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"quizcash/internal/ledger"
	"quizcash/internal/store"
	"quizcash/internal/wallet"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type WalletHandlers struct {
	svc *wallet.Service
}

func NewWalletHandlers(svc *wallet.Service) *WalletHandlers {
	return &WalletHandlers{svc: svc}
}

type transactionView struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	Kind        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Status      string          `json:"status"`
	SessionID   string          `json:"session_id,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

func toTransactionView(tx *store.Transaction) transactionView {
	return transactionView{
		ID: tx.ID, Reference: tx.Reference, Kind: tx.Kind,
		Amount: tx.Amount, Fee: tx.Fee, Status: tx.Status,
		SessionID: tx.SessionID, Metadata: tx.Metadata,
		CreatedAt: tx.CreatedAt, ProcessedAt: tx.ProcessedAt,
	}
}

func (h *WalletHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		acct, err := h.svc.Balance(r.Context(), accountID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"account_id":      acct.ID,
			"balance":         acct.Balance,
			"total_earned":    acct.TotalEarned,
			"total_withdrawn": acct.TotalWithdrawn,
			"games_played":    acct.GamesPlayed,
			"wins":            acct.Wins,
			"free_spins":      acct.FreeSpins,
		})
	}
}

func (h *WalletHandlers) Transactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		limit, offset := ParsePagination(r)
		txs, err := h.svc.Transactions(r.Context(), accountID, r.URL.Query().Get("type"), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		views := make([]transactionView, 0, len(txs))
		for i := range txs {
			views = append(views, toTransactionView(&txs[i]))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"transactions": views})
	}
}

func (h *WalletHandlers) Deposit() http.HandlerFunc {
	type request struct {
		Amount    decimal.Decimal `json:"amount"`
		Reference string          `json:"reference"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		tx, err := h.svc.Deposit(r.Context(), accountID, req.Amount, req.Reference)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"transaction": toTransactionView(tx)})
	}
}

func (h *WalletHandlers) Withdraw() http.HandlerFunc {
	type request struct {
		Amount decimal.Decimal    `json:"amount"`
		Bank   ledger.BankDetails `json:"bank"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		tx, days, err := h.svc.Withdraw(r.Context(), accountID, req.Amount, req.Bank)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transaction":     toTransactionView(tx),
			"processing_days": days,
		})
	}
}

func (h *WalletHandlers) WithdrawalStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		reference := chi.URLParam(r, "reference")
		tx, meta, err := h.svc.WithdrawalStatus(r.Context(), reference)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if tx.AccountID != accountID {
			WriteHTTPError(w, http.StatusNotFound, "not_found")
			return
		}
		resp := map[string]any{"transaction": toTransactionView(tx)}
		if meta != nil {
			resp["bank"] = meta.Bank
			resp["processing_days"] = meta.ProcessingDays
			resp["estimated_completion"] = meta.EstimatedCompletion
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
