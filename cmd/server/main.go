package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"signal-relay/internal/bot"
	"signal-relay/internal/cache"
	"signal-relay/internal/config"
	"signal-relay/internal/db"
	"signal-relay/internal/domain"
	"signal-relay/internal/exchange"
	"signal-relay/internal/handler"
	"signal-relay/internal/job"
	"signal-relay/internal/provider"
	"signal-relay/internal/push"
	"signal-relay/internal/repository"
	"signal-relay/internal/service"
	"signal-relay/internal/store"
	"signal-relay/internal/ws"
	"signal-relay/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newProvidersFunc = func(tracer trace.Tracer) []provider.Provider {
		return []provider.Provider{
			provider.NewCoinGeckoProvider(tracer),
			provider.NewCryptoCompareProvider(tracer),
			provider.NewBinanceProvider(tracer),
		}
	}
	newPriceServiceFunc  = service.NewPriceService
	newDeltaClientFunc   = exchange.NewDeltaClient
	startTelegramBotFunc = bot.StartTelegramBot
	newHandlerFunc       = handler.New
	newRouterFunc        = gin.Default
	startPricePollerFunc = func(p *job.PricePoller, ctx context.Context) { go p.Start(ctx) }
	startHeartbeatFunc   = func(h *job.Heartbeat, ctx context.Context) { go h.Start(ctx) }
	startFeedClientFunc  = func(c *ws.Client, ctx context.Context) {
		go func() {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("feed client stopped: %v", err)
			}
		}()
	}
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	users := store.NewUserStore()
	sessions := store.NewSessionStore()
	signals := store.NewSignalStore()
	orders := store.NewOrderStore()
	subs := store.NewSubscriptionStore()
	tokens := store.NewTokenStore()

	seedAdmin(users, cfg)

	// Archives mirror the in-memory stores; without Postgres the process
	// runs on memory alone.
	var signalArchive service.SignalArchive
	var orderArchive service.OrderArchive
	if db.Pool != nil {
		sa := repository.NewSignalArchive(db.Pool, tracer)
		oa := repository.NewOrderArchive(db.Pool, tracer)
		if err := sa.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run signal migrations: %v", err)
		}
		if err := oa.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run order migrations: %v", err)
		}
		signalArchive = sa
		orderArchive = oa
	}

	priceService := newPriceServiceFunc(tracer, newProvidersFunc(tracer), cache.Client)
	delta := newDeltaClientFunc(tracer)
	hub := ws.NewHub()

	tgBot := startTelegramBotFunc(cfg.TelegramBotToken, priceService)
	alerter := bot.NewChatAlerter(tracer, tgBot, cfg.TelegramChatID, cfg.DashboardURL, cfg.TelegramEnabled && tgBot != nil)
	pusher := push.NewWebPusher(tracer, subs, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber)

	autoTrader := service.NewAutoTradeService(tracer, users, delta, orders, hub, orderArchive)
	alertService := service.NewAlertService(tracer, signals, priceService, alerter, pusher, hub, autoTrader, signalArchive)

	if cfg.FeedURL != "" {
		feed := ws.NewClient(cfg.FeedURL, time.Duration(cfg.FeedReconnectBaseMS)*time.Millisecond, cfg.FeedReconnectRetries)
		feed.OnMessage = feedDispatcher(ctx, alertService)
		startFeedClientFunc(feed, ctx)
	}

	poller := job.NewPricePoller(tracer, priceService, hub, cfg.PricePollSecs)
	startPricePollerFunc(poller, ctx)
	heartbeat := job.NewHeartbeat(hub, cfg.HeartbeatSecs)
	startHeartbeatFunc(heartbeat, ctx)

	status := handler.ChannelStatus{
		ChatEnabled:      cfg.TelegramEnabled && tgBot != nil,
		ChatConfigured:   cfg.TelegramBotToken != "",
		ChatIDConfigured: cfg.TelegramChatID != 0,
		VAPIDPublicKey:   cfg.VAPIDPublicKey,
		DashboardURL:     cfg.DashboardURL,
	}
	h := newHandlerFunc(tracer, alertService, priceService, delta, hub, status, users, sessions, signals, orders, subs, tokens)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("signal-relay"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.DashboardURL, "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
	}))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()
	hub.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func seedAdmin(users *store.UserStore, cfg *config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	users.Seed(domain.User{
		ID:        "admin",
		Name:      "Admin",
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	})
	log.Printf("seeded admin account %s", cfg.AdminEmail)
}

// feedDispatcher routes signals arriving over the upstream stream into the
// same pipeline the webhook uses. Frames that do not look like signals are
// dropped.
func feedDispatcher(ctx context.Context, alerts handler.Dispatcher) func(data []byte) {
	return func(data []byte) {
		var sig domain.Signal
		if err := json.Unmarshal(data, &sig); err != nil {
			return
		}
		if sig.Symbol == "" || !sig.Direction.IsValid() {
			return
		}
		if sig.ID == "" {
			sig.ID = "feed_" + uuid.NewString()
		}
		if sig.Source == "" {
			sig.Source = "feed"
		}
		if sig.CreatedAt.IsZero() {
			sig.CreatedAt = time.Now().UTC()
		}
		alerts.Dispatch(ctx, sig)
	}
}
