package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"quizcash/internal/config"
	"quizcash/internal/game"
	"quizcash/internal/ledger"
	"quizcash/internal/spin"
	"quizcash/internal/store"
	"quizcash/internal/wallet"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, srvCfg config.ServerConfig, gameCfg config.GameConfig,
	engine *game.Engine, spinSvc *spin.Service, walletSvc *wallet.Service, led *ledger.Ledger) *chi.Mux {

	gameHandlers := NewGameHandlers(engine)
	spinHandlers := NewSpinHandlers(spinSvc)
	walletHandlers := NewWalletHandlers(walletSvc)
	adminHandlers := NewAdminHandlers(st, led, walletSvc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Get("/quiz/levels", gameHandlers.Levels())
		r.Get("/spin/config", spinHandlers.Config())

		r.Group(func(r chi.Router) {
			r.Use(AccountMiddleware(st, led, gameCfg.InitialBalance))

			r.Post("/quiz/start", gameHandlers.Start())
			r.Get("/quiz/{session_id}", gameHandlers.Session())
			r.Post("/quiz/{session_id}/submit", gameHandlers.Submit())
			r.Post("/quiz/{session_id}/join", gameHandlers.Join())
			r.Post("/quiz/{session_id}/quit", gameHandlers.Quit())

			r.Post("/spin", spinHandlers.Spin())
			r.Get("/spin/status", spinHandlers.Status())
			r.Get("/spin/history", spinHandlers.History())
			r.Post("/spin/buy", spinHandlers.Buy())

			r.Get("/wallet/balance", walletHandlers.Balance())
			r.Get("/wallet/transactions", walletHandlers.Transactions())
			r.Post("/wallet/deposit", walletHandlers.Deposit())
			r.Post("/wallet/withdraw", walletHandlers.Withdraw())
			r.Get("/wallet/withdraw/{reference}", walletHandlers.WithdrawalStatus())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(srvCfg.AdminAPIKey))

			r.Get("/admin/questions", adminHandlers.ListQuestions())
			r.Post("/admin/questions", adminHandlers.CreateQuestion())
			r.Patch("/admin/questions/{question_id}", adminHandlers.SetQuestionActive())
			r.Get("/admin/withdrawals", adminHandlers.PendingWithdrawals())
			r.Post("/admin/transactions/{transaction_id}/process", adminHandlers.SettleWithdrawal())
			r.Post("/admin/accounts/{account_id}/adjust", adminHandlers.Adjust())
			r.Get("/admin/accounts/{account_id}", adminHandlers.Account())
			r.Get("/spin/verify/{spin_id}", spinHandlers.Verify())
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
