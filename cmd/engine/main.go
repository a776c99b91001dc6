// Command engine is tradeforge's process entrypoint: it wires the
// Market State Store, the exchange collaborator (live Binance or the
// paper client, chosen by whether credentials are configured), and the
// tick loop, then runs until SIGINT/SIGTERM. Grounded on
// yoghaf-market-indikator/cmd/orderflow/main.go's numbered-step wiring
// and ctx/cancel + signal-channel shutdown shape.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tradeforge/api"
	"tradeforge/config"
	"tradeforge/engine"
	"tradeforge/exchange"
	"tradeforge/logger"
	"tradeforge/metrics"
	"tradeforge/position"
	"tradeforge/store"
)

func main() {
	logger.Configure(logger.Config{Level: envOr("TRADEFORGE_LOG_LEVEL", "info"), Pretty: true, Output: os.Stdout})
	log := logger.Component("cmd.engine")
	metrics.Init()

	// 1. Settings: .env overlay onto the spec's stated defaults.
	settings, err := config.Load(envOr("TRADEFORGE_ENV_FILE", ".env"))
	if err != nil {
		log.Fatal().Err(err).Msg("load settings")
	}

	// 2. Durable store: sqlite-backed persistence, eager-loaded overlay.
	persister, err := store.OpenPersister(envOr("TRADEFORGE_DB_PATH", "tradeforge.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open persister")
	}
	defer persister.Close()

	if saved, err := config.LoadFromStore(persister); err != nil {
		log.Warn().Err(err).Msg("load persisted settings overlay, using env-derived settings")
	} else {
		settings = saved
	}

	// 3. Market State Store: in-memory, persister-backed for the keys
	// that need to survive a restart.
	st := store.New(persister)

	// 4. Paper ledger: the external balance collaborator Position
	// Lifecycle Manager realizes P&L through.
	ledger := position.NewPaperLedger(settings.PortfolioValue)

	// 5. Exchange collaborator: live Binance if credentials are present,
	// otherwise the paper client resolves fills synthetically.
	client := newExchangeClient(settings, st, log)

	// 6. Tick loop.
	cfg := settings.ToEngineConfig()
	eng := engine.New(cfg, client, st, ledger, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	// 7. Dashboard broadcast: one JSON snapshot per second over a
	// websocket, so a UI or backtester harness can follow the tick loop
	// without polling the HTTP API.
	broadcaster := engine.NewBroadcaster(st, time.Second)
	broadcastStop := make(chan struct{})
	go broadcaster.Run(broadcastStop)

	// 8. HTTP API: read endpoints over the MSS plus admin endpoints
	// (emergency stop, settings edits) behind a JWT session and, for
	// admin routes, a TOTP step-up code.
	settingsStore := api.NewSettingsStore(persister, settings)
	auth := api.Auth{
		JWTSecret:     []byte(envOr("TRADEFORGE_JWT_SECRET", "dev-only-insecure-secret")),
		TOTPSecret:    envOr("TRADEFORGE_TOTP_SECRET", ""),
		OperatorToken: envOr("TRADEFORGE_OPERATOR_TOKEN", "dev-only-insecure-token"),
	}
	apiSrv := api.NewServer(st, eng, ledger, settingsStore, auth, logger.Component("cmd.api"))

	mux := http.NewServeMux()
	mux.Handle("/ws", broadcaster)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/", apiSrv.Handler())
	httpSrv := &http.Server{Addr: envOr("TRADEFORGE_WS_ADDR", ":8090"), Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("broadcast http server exited")
		}
	}()
	defer func() {
		close(broadcastStop)
		_ = httpSrv.Shutdown(context.Background())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received")
		eng.Stop()
		<-done
	case err := <-done:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("engine exited")
		}
	}
}

// storePriceSource adapts store.Store's last-ticker read into
// exchange.PriceSource, the paper client's fill-resolution collaborator.
type storePriceSource struct{ st *store.Store }

func (s storePriceSource) Price(pair string) (float64, bool) {
	t, ok := s.st.Ticker(pair)
	if !ok {
		return 0, false
	}
	return t.Price, true
}

func newExchangeClient(settings config.Settings, st *store.Store, log zerolog.Logger) exchange.ExchangeClient {
	apiKey := os.Getenv("BINANCE_API_KEY")
	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiKey != "" && apiSecret != "" {
		log.Info().Msg("using live Binance exchange client")
		return exchange.NewBinanceClient(apiKey, apiSecret, log)
	}

	log.Info().Msg("no BINANCE_API_KEY/BINANCE_API_SECRET configured, using paper exchange client")
	return exchange.NewPaper(exchange.PaperConfig{
		SlippagePct: settings.EstSlippagePct,
		FeePct:      settings.EstFeePct,
	}, storePriceSource{st: st}, 1024)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
