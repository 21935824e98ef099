package main

import (
	"context"
	"net/http"
	"time"

	"quizcash/internal/config"
	"quizcash/internal/game"
	"quizcash/internal/jobs"
	"quizcash/internal/ledger"
	"quizcash/internal/logging"
	"quizcash/internal/questions"
	"quizcash/internal/spin"
	"quizcash/internal/store"
	httptransport "quizcash/internal/transport/http"
	"quizcash/internal/wallet"

	"github.com/rs/zerolog/log"
)

func main() {
	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)

	st, err := store.New(app.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	led := ledger.New(st)
	selector := questions.NewSelector(st)
	engine, err := game.NewEngine(st, selector, app.Game)
	if err != nil {
		log.Fatal().Err(err).Msg("game engine init failed")
	}
	spinSvc := spin.NewService(st, app.Game)
	walletSvc := wallet.NewService(st, led, app.Game, nil)

	scheduler := jobs.NewScheduler(st, app.Game)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}
	defer scheduler.Stop()

	r := httptransport.NewRouter(st, app.Server, app.Game, engine, spinSvc, walletSvc, led)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              app.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", app.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
