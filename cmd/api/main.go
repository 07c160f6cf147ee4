package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/parcelflow-backend/api/routes"
	"github.com/angelmondragon/parcelflow-backend/internal/notifications"
	"github.com/angelmondragon/parcelflow-backend/internal/preferences"
	"github.com/angelmondragon/parcelflow-backend/internal/shipments"
	"github.com/angelmondragon/parcelflow-backend/internal/statussync"
	"github.com/angelmondragon/parcelflow-backend/pkg/config"
	"github.com/angelmondragon/parcelflow-backend/pkg/currency"
	"github.com/angelmondragon/parcelflow-backend/pkg/db"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
	"github.com/angelmondragon/parcelflow-backend/pkg/migrate"
	"github.com/angelmondragon/parcelflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	econtClient, err := econt.NewClient(cfg.Econt, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create carrier client", err)
		os.Exit(1)
	}

	conv := currency.NewConverter()

	notificationsService, err := notifications.NewService(
		notifications.NewRepository(dbClient.DB()),
		notifications.NewLogDispatcher(logg),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	shipmentsRepo := shipments.NewRepository(dbClient.DB())
	shipmentsService, err := shipments.NewService(shipmentsRepo, econtClient, notificationsService, cfg.Econt, conv, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	preferencesService, err := preferences.NewService(
		preferences.NewRepository(dbClient.DB()),
		shipmentsService,
		econtClient,
		cfg.Econt,
		conv,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create preferences service", err)
		os.Exit(1)
	}

	statusSyncService, err := statussync.NewService(shipmentsRepo, econtClient, notificationsService, cfg.Sync.ThrottleWindow, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create status sync service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			econtClient,
			preferencesService,
			shipmentsService,
			statusSyncService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
