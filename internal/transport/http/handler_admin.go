package httptransport

import (
	"encoding/json"
	"net/http"

	"quizcash/internal/ledger"
	"quizcash/internal/store"
	"quizcash/internal/wallet"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type AdminHandlers struct {
	store     *store.Store
	ledger    *ledger.Ledger
	walletSvc *wallet.Service
}

func NewAdminHandlers(st *store.Store, led *ledger.Ledger, walletSvc *wallet.Service) *AdminHandlers {
	return &AdminHandlers{store: st, ledger: led, walletSvc: walletSvc}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "database_unreachable")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func (h *AdminHandlers) CreateQuestion() http.HandlerFunc {
	type request struct {
		Category    string    `json:"category"`
		Level       string    `json:"level"`
		Difficulty  int       `json:"difficulty"`
		Text        string    `json:"question"`
		Options     [4]string `json:"options"`
		Correct     int       `json:"correct_answer"`
		Explanation string    `json:"explanation"`
		Points      int       `json:"points"`
		TimeLimit   int       `json:"time_limit"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if req.Text == "" || req.Level == "" || req.Correct < 0 || req.Correct > 3 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		for _, opt := range req.Options {
			if opt == "" {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
		}
		q := &store.Question{
			Category:     req.Category,
			Level:        req.Level,
			Difficulty:   req.Difficulty,
			Text:         req.Text,
			Options:      req.Options,
			CorrectIndex: req.Correct,
			Explanation:  req.Explanation,
			Points:       req.Points,
			TimeLimit:    req.TimeLimit,
			IsActive:     true,
		}
		if q.Difficulty == 0 {
			q.Difficulty = 1
		}
		if q.Points == 0 {
			q.Points = 10
		}
		if q.TimeLimit == 0 {
			q.TimeLimit = 10
		}
		if err := h.store.CreateQuestion(r.Context(), q); err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": q.ID})
	}
}

func (h *AdminHandlers) ListQuestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		qs, err := h.store.ListQuestions(r.Context(), r.URL.Query().Get("level"), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		type view struct {
			ID          string    `json:"id"`
			Category    string    `json:"category"`
			Level       string    `json:"level"`
			Difficulty  int       `json:"difficulty"`
			Text        string    `json:"question"`
			Options     [4]string `json:"options"`
			Correct     int       `json:"correct_answer"`
			TimesUsed   int       `json:"times_used"`
			SuccessRate float64   `json:"success_rate"`
			IsActive    bool      `json:"is_active"`
		}
		out := make([]view, 0, len(qs))
		for _, q := range qs {
			out = append(out, view{
				ID: q.ID, Category: q.Category, Level: q.Level,
				Difficulty: q.Difficulty, Text: q.Text, Options: q.Options,
				Correct: q.CorrectIndex, TimesUsed: q.TimesUsed,
				SuccessRate: q.SuccessRate, IsActive: q.IsActive,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": out})
	}
}

func (h *AdminHandlers) SetQuestionActive() http.HandlerFunc {
	type request struct {
		Active bool `json:"active"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := h.store.SetQuestionActive(r.Context(), chi.URLParam(r, "question_id"), req.Active); err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func (h *AdminHandlers) PendingWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		txs, err := h.store.ListPendingWithdrawals(r.Context(), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		views := make([]transactionView, 0, len(txs))
		for i := range txs {
			views = append(views, toTransactionView(&txs[i]))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"withdrawals": views})
	}
}

func (h *AdminHandlers) SettleWithdrawal() http.HandlerFunc {
	type request struct {
		Approve bool `json:"approve"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		tx, err := h.walletSvc.SettleWithdrawal(r.Context(), chi.URLParam(r, "transaction_id"), req.Approve)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"transaction": toTransactionView(tx)})
	}
}

func (h *AdminHandlers) Adjust() http.HandlerFunc {
	type request struct {
		Amount  decimal.Decimal `json:"amount"`
		Add     bool            `json:"add"`
		Reason  string          `json:"reason"`
		AdminID string          `json:"admin_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "account_id")
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if !req.Amount.IsPositive() || req.Reason == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		action := "debit"
		if req.Add {
			action = "credit"
		}
		meta := ledger.AdjustmentMeta{Action: action, Reason: req.Reason, AdminID: req.AdminID}
		tx, err := h.ledger.Adjust(r.Context(), accountID, req.Amount, req.Add, meta)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"transaction": toTransactionView(tx)})
	}
}

func (h *AdminHandlers) Account() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, err := h.store.GetAccount(r.Context(), chi.URLParam(r, "account_id"))
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
			"created_at":      acct.CreatedAt,
		})
	}
}
