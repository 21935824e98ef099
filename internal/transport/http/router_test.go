package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"quizcash/internal/config"
	"quizcash/internal/game"
	"quizcash/internal/ledger"
	"quizcash/internal/questions"
	"quizcash/internal/spin"
	"quizcash/internal/store"
	"quizcash/internal/testutil"
	"quizcash/internal/wallet"
)

// The public and auth-guarded surfaces are testable without Postgres:
// nothing below the middleware is reached.
func testRouter(t *testing.T) http.Handler {
	t.Helper()
	gameCfg := config.GameConfig{
		PlatformFeeRate: "0.10",
		MinStake:        10,
		MaxStake:        100000,
		FreeSpinsDaily:  10,
		SpinCost:        50,
		InitialBalance:  1000,
	}
	engine, err := game.NewEngine(nil, nil, gameCfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	spinSvc := spin.NewService(nil, gameCfg)
	walletSvc := wallet.NewService(nil, nil, gameCfg, nil)
	return NewRouter(nil, config.ServerConfig{AdminAPIKey: "sekrit"}, gameCfg,
		engine, spinSvc, walletSvc, ledger.New(nil))
}

func TestPublicLevels(t *testing.T) {
	r := testRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quiz/levels", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Levels []struct {
			Name       string `json:"name"`
			MaxPlayers int    `json:"max_players"`
		} `json:"levels"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Levels) != 6 || body.Levels[0].Name != "quick" {
		t.Fatalf("unexpected levels: %+v", body.Levels)
	}
}

func TestPublicSpinConfig(t *testing.T) {
	r := testRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spin/config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		SpinCost string `json:"spin_cost"`
		Wheel    []struct {
			Prize       int64 `json:"prize"`
			Probability int   `json:"probability"`
		} `json:"wheel"`
		Packages []struct {
			Spins int `json:"spins"`
		} `json:"packages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SpinCost != "50" || len(body.Wheel) != 8 || len(body.Packages) != 3 {
		t.Fatalf("unexpected config: %+v", body)
	}
}

func TestAccountHeaderRequired(t *testing.T) {
	r := testRouter(t)
	for _, target := range []string{
		"/api/wallet/balance",
		"/api/spin/status",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without X-Account-ID: status = %d, want 401", target, rec.Code)
		}
	}
}

func TestProvisioningPaysWelcomeBonus(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()

	gameCfg := config.GameConfig{
		PlatformFeeRate: "0.10",
		MinStake:        10,
		MaxStake:        100000,
		FreeSpinsDaily:  10,
		SpinCost:        50,
		InitialBalance:  1000,
	}
	led := ledger.New(st)
	engine, err := game.NewEngine(st, questions.NewSelector(st), gameCfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	r := NewRouter(st, config.ServerConfig{AdminAPIKey: "sekrit"}, gameCfg,
		engine, spin.NewService(st, gameCfg), wallet.NewService(st, led, gameCfg, nil), led)

	balance := func() string {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/wallet/balance", nil)
		req.Header.Set("X-Account-ID", "fresh-1")
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body struct {
			Balance string `json:"balance"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Balance
	}

	if got := balance(); got != "1000" {
		t.Fatalf("first-sight balance = %s, want 1000", got)
	}

	// The opening balance is a ledger credit, not a raw row value.
	tx, err := st.GetTransactionByReference(context.Background(), "BONUS-fresh-1")
	if err != nil {
		t.Fatalf("bonus tx: %v", err)
	}
	if tx.Kind != store.TxBonus || !tx.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected bonus tx: kind=%s amount=%s", tx.Kind, tx.Amount)
	}

	// A repeat visit neither re-pays the bonus nor touches the balance.
	if got := balance(); got != "1000" {
		t.Fatalf("second-sight balance = %s, want 1000", got)
	}
	txs, err := st.ListTransactions(context.Background(), "fresh-1", "", 10, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected exactly 1 transaction, got %d", len(txs))
	}
}

func TestAdminKeyRequired(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/questions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spin/verify/sp-1", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", rec.Code)
	}
}
