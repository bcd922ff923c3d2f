package main

import (
	"context"
	"fmt"

	"ms-booking/internal/app"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/notification"
	notification_db "ms-booking/internal/notification/db"
	"ms-booking/internal/notification/notification_api"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLoggerInDir("notification-service", cfg.LogDir)
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	log.Info("APP", "Starting Notification Service initialization")

	ctx := context.Background()
	infra, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatal("APP", err.Error())
	}
	defer infra.Close()

	store := &notification_db.DB{Bun: infra.DB}
	dispatcher := notification.NewDispatcher(notification.NewTransport(cfg.Notification, nil, log), store, log, infra.Metrics)
	handler := notification_api.NewHandler(dispatcher, store, log)

	// Other services call this one with M2M tokens, so the same OIDC
	// verification applies.
	router, err := app.NewRouter(ctx, cfg.Auth, infra.Metrics, log, handler.RegisterRoutes)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	err = app.Serve(ctx, cfg.Server, router, log, func(ctx context.Context) {
		if err := dispatcher.Close(ctx); err != nil {
			log.Warn("NOTIFICATION", fmt.Sprintf("Pending notifications dropped at shutdown: %v", err))
		}
	})
	if err != nil {
		log.Error("APP", err.Error())
	}
}
