package main

import (
	"context"
	"fmt"

	"ms-booking/internal/analytics"
	analytics_api "ms-booking/internal/analytics/api"
	"ms-booking/internal/app"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	booking_db "ms-booking/internal/booking/db"
	"ms-booking/internal/booking/qr_generator"
	booking_redis "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/notification"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

// Booking service. Notifications go to the notification service and
// analytics reads the catalog and identity services over HTTP.
func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLoggerInDir("booking-service", cfg.LogDir)
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	log.Info("APP", "Starting Booking Service initialization")

	ctx := context.Background()
	infra, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatal("APP", err.Error())
	}
	defer infra.Close()

	remote := app.Gateway(cfg, infra.Redis, log)

	// Delivery records are kept by the notification service.
	dispatcher := notification.NewDispatcher(notification.RemoteTransport{Client: remote}, nil, log, infra.Metrics)

	store := &booking_db.DB{Bun: infra.DB}
	opts := []booking.Option{booking.WithMetrics(infra.Metrics)}
	var stock booking_api.StockAdmin
	if cfg.Booking.InventoryEnabled && infra.Redis != nil {
		inventory := booking_redis.NewInventory(infra.Redis, log)
		opts = append(opts, booking.WithInventory(inventory))
		stock = inventory
	}
	if infra.Producer != nil {
		opts = append(opts, booking.WithPublisher(infra.Producer))
	}
	service := booking.NewBookingService(store, dispatcher, log, opts...)

	bookingHandler := booking_api.NewHandler(service, stock, qr_generator.NewQRGenerator(cfg.Booking.QRSecret), log)
	analyticsHandler := analytics_api.NewHandler(analytics.NewService(remote, remote, store, nil, infra.Metrics, log), log)

	router, err := app.NewRouter(ctx, cfg.Auth, infra.Metrics, log, func(r chi.Router) {
		bookingHandler.RegisterRoutes(r)
		analyticsHandler.RegisterRoutes(r)
	})
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
