package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/auth"
	"github.com/Mojahedhu/Mojahed-Store/internal/config"
	"github.com/Mojahedhu/Mojahed-Store/internal/gateway/paypalmp"
	"github.com/Mojahedhu/Mojahed-Store/internal/gateway/stripecard"
	"github.com/Mojahedhu/Mojahed-Store/internal/httpx"
	"github.com/Mojahedhu/Mojahed-Store/internal/httpx/middlewares"
	paymentlogsqlite "github.com/Mojahedhu/Mojahed-Store/internal/paymentlog/sqlite"
	"github.com/Mojahedhu/Mojahed-Store/internal/pkg/cache"
	"github.com/Mojahedhu/Mojahed-Store/internal/pkg/telemetry"
	"github.com/Mojahedhu/Mojahed-Store/internal/storage/mongodb"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.TracingEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, "storefront")
		if err != nil {
			slog.Error("failed to initialise tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("mongodb connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("mongodb disconnect error", "error", err)
		}
	}()
	db := client.Database(cfg.MongoDatabase)

	redisCache := cache.NewRedisCache(cfg.RedisAddr, "storefront")

	orderStore := mongodb.NewOrderStore(client, db)
	productStore := mongodb.NewProductStore(db, redisCache)
	categoryStore := mongodb.NewCategoryStore(db)
	userStore := mongodb.NewUserStore(db)

	if err := userStore.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to ensure user indexes", "error", err)
		os.Exit(1)
	}
	if err := categoryStore.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to ensure category indexes", "error", err)
		os.Exit(1)
	}

	plog, err := paymentlogsqlite.Open(cfg.PaymentLogPath)
	if err != nil {
		slog.Error("failed to open payment log", "error", err)
		os.Exit(1)
	}
	defer plog.Close()

	stripeGateway := stripecard.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	paypalGateway, err := paypalmp.New(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalAPIBase, cfg.PayPalWebhookID)
	if err != nil {
		slog.Error("failed to build paypal client", "error", err)
		os.Exit(1)
	}
	if err := paypalGateway.Authenticate(ctx); err != nil {
		slog.Error("paypal authentication failed", "error", err)
		os.Exit(1)
	}

	orders := app.NewService(orderStore, productStore, stripeGateway, paypalGateway, plog)
	users := app.NewUserService(userStore)
	catalog := app.NewCatalogService(productStore, categoryStore)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	router := httpx.NewRouter(httpx.Handlers{
		Orders:   httpx.NewOrderHandler(orders),
		Webhooks: httpx.NewWebhookHandler(orders),
		Users:    httpx.NewUserHandler(users, tokens),
		Catalog:  httpx.NewCatalogHandler(catalog),
		Auth:     middlewares.NewAuthenticator(tokens, userStore),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("storefront listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
}
