package httptransport

import (
	"encoding/json"
	"net/http"

	"quizcash/internal/spin"
	"quizcash/internal/store"

	"github.com/go-chi/chi/v5"
)

type SpinHandlers struct {
	svc *spin.Service
}

func NewSpinHandlers(svc *spin.Service) *SpinHandlers {
	return &SpinHandlers{svc: svc}
}

type spinView struct {
	ID           string `json:"id"`
	AmountWon    string `json:"amount_won"`
	UsedFreeSpin bool   `json:"used_free_spin"`
	SpinCost     string `json:"spin_cost"`
	ServerSeed   string `json:"server_seed"`
	ClientSeed   string `json:"client_seed"`
	Nonce        int64  `json:"nonce"`
	Hash         string `json:"hash"`
	RandomNumber int    `json:"random_number"`
	CreatedAt    string `json:"created_at"`
}

func toSpinView(sp *store.SpinRecord) spinView {
	return spinView{
		ID:           sp.ID,
		AmountWon:    sp.AmountWon.String(),
		UsedFreeSpin: sp.UsedFreeSpin,
		SpinCost:     sp.SpinCost.String(),
		ServerSeed:   sp.ServerSeed,
		ClientSeed:   sp.ClientSeed,
		Nonce:        sp.Nonce,
		Hash:         sp.HashResult,
		RandomNumber: sp.RandomNumber,
		CreatedAt:    sp.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *SpinHandlers) Spin() http.HandlerFunc {
	type request struct {
		UseFreeSpin bool `json:"use_free_spin"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		req := request{UseFreeSpin: true}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
		}
		settled, err := h.svc.Spin(r.Context(), accountID, req.UseFreeSpin)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spin":            toSpinView(settled.Record),
			"balance":         settled.NewBalance,
			"free_spins_left": settled.RemainingSpins,
		})
	}
}

func (h *SpinHandlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		st, err := h.svc.Status(r.Context(), accountID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"free_spins":  st.FreeSpins,
			"spins_today": st.SpinsToday,
			"spin_cost":   st.SpinCost,
			"wheel":       st.Wheel,
			"packages":    st.Packages,
		})
	}
}

func (h *SpinHandlers) Config() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := h.svc.Config()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spin_cost": cfg.SpinCost,
			"wheel":     cfg.Wheel,
			"packages":  cfg.Packages,
		})
	}
}

func (h *SpinHandlers) Verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.svc.Verify(r.Context(), chi.URLParam(r, "spin_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spin":  toSpinView(res.Spin),
			"valid": res.Valid,
		})
	}
}

func (h *SpinHandlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		limit, offset := ParsePagination(r)
		spins, stats, err := h.svc.History(r.Context(), accountID, limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		views := make([]spinView, 0, len(spins))
		for i := range spins {
			views = append(views, toSpinView(&spins[i]))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spins": views,
			"stats": map[string]any{
				"total_won":       stats.TotalWon,
				"total_spins":     stats.TotalSpins,
				"free_spins_used": stats.FreeSpinsUsed,
				"paid_spins":      stats.PaidSpins,
				"biggest_win":     stats.BiggestWin,
			},
		})
	}
}

func (h *SpinHandlers) Buy() http.HandlerFunc {
	type request struct {
		Spins int `json:"spins"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := AccountFromContext(r.Context())
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		settled, err := h.svc.Buy(r.Context(), accountID, req.Spins)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"balance":    settled.NewBalance,
			"free_spins": settled.RemainingSpins,
		})
	}
}
