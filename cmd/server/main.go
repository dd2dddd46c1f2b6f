// @title           Item Server API
// @version         1.0
// @description     Session-authenticated CRUD for user-owned items.
// @host            localhost:8080
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"item-server/internal/accounts"
	"item-server/internal/api"
	"item-server/internal/auth"
	"item-server/internal/config"
	"item-server/internal/database"
	"item-server/internal/items"
	"item-server/internal/logger"
	"item-server/internal/oauth"
	"item-server/internal/otp"
	"item-server/internal/ratelimit"
	"item-server/internal/session"
	"item-server/internal/storage"
	"item-server/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "item-server/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", false)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if err := database.Migrate(ctx, cfg.DB.Source); err != nil {
		return err
	}

	dbpool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		return err
	}
	log.Info().Msg("connected to database")

	store := database.NewStore(dbpool)

	sessions, err := session.NewStore(store,
		session.WithTTL(cfg.Session.TTL),
		session.WithLogger(logger.Module(log, "session")),
	)
	if err != nil {
		return err
	}

	tickets, err := auth.NewTickets(cfg.Ticket.Secret, cfg.Ticket.TTL)
	if err != nil {
		return err
	}

	otpProvider, err := otp.New(cfg.OTP, logger.Module(log, "otp"))
	if err != nil {
		return err
	}

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("image storage ready")

	wsHub := websocket.NewHub(logger.Module(log, "websocket"))

	providers := []oauth.Provider{}
	if cfg.OAuth.Google.Enabled() {
		google, err := oauth.NewGoogle(ctx, cfg.OAuth.Google)
		if err != nil {
			return err
		}
		providers = append(providers, google)
	}

	var limiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		limiter = ratelimit.New(redisClient, ratelimit.Config{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		}, logger.Module(log, "ratelimit"))
	} else {
		log.Warn().Msg("redis.addr is empty, rate limiting disabled")
	}

	server := api.NewServer(api.Dependencies{
		Config:   cfg,
		Store:    store,
		Sessions: sessions,
		Tickets:  tickets,
		Accounts: accounts.NewService(accounts.NewPostgresStore(store), otpProvider, logger.Module(log, "accounts")),
		Items: items.NewService(items.NewPostgresStore(store),
			items.WithImages(images, cfg.AppHost),
			items.WithPublisher(wsHub),
			items.WithLogger(logger.Module(log, "items")),
		),
		OAuth:   oauth.NewRegistry(providers...),
		Limiter: limiter,
		Hub:     wsHub,
		Metrics: api.NewMetrics(prometheus.DefaultRegisterer),
		Log:     logger.Module(log, "http"),
	})

	r := server.Routes()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(cfg.AppHost+"/swagger/doc.json"),
	))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return wsHub.Run(gctx)
	})

	g.Go(func() error {
		return sessions.RunPurger(gctx, cfg.Session.PurgeInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
