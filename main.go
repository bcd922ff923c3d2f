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
	notification_db "ms-booking/internal/notification/db"
	"ms-booking/internal/notification/notification_api"
	"ms-booking/internal/payment"
	payment_db "ms-booking/internal/payment/db"
	"ms-booking/internal/payment/payment_api"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

// All-in-one service: bookings, payments, notifications and analytics in one process.
func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLoggerInDir("ms-booking", cfg.LogDir)
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	log.Info("APP", "Starting booking platform initialization")

	ctx := context.Background()
	infra, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatal("APP", err.Error())
	}
	defer infra.Close()

	remote := app.Gateway(cfg, infra.Redis, log)

	notificationStore := &notification_db.DB{Bun: infra.DB}
	dispatcher := notification.NewDispatcher(
		notification.NewTransport(cfg.Notification, nil, log),
		notificationStore,
		log,
		infra.Metrics,
	)

	bookingStore := &booking_db.DB{Bun: infra.DB}
	opts := []booking.Option{booking.WithMetrics(infra.Metrics)}
	var stock booking_api.StockAdmin
	if cfg.Booking.InventoryEnabled {
		if infra.Redis == nil {
			log.Fatal("CONFIG", "TIER_INVENTORY_ENABLED requires REDIS_ENABLED")
		}
		inventory := booking_redis.NewInventory(infra.Redis, log)
		opts = append(opts, booking.WithInventory(inventory))
		stock = inventory
		log.Info("REDIS", "Ticket tier inventory enabled")
	}
	if infra.Producer != nil {
		opts = append(opts, booking.WithPublisher(infra.Producer))
	}
	bookingService := booking.NewBookingService(bookingStore, dispatcher, log, opts...)

	gateway, err := app.PaymentGateway(cfg.Payment, log)
	if err != nil {
		log.Fatal("PAYMENT", err.Error())
	}
	paymentStore := &payment_db.DB{Bun: infra.DB}
	var paymentPublisher payment.EventPublisher
	if infra.Producer != nil {
		paymentPublisher = infra.Producer
	}
	paymentService := payment.NewPaymentService(paymentStore, gateway, paymentPublisher, infra.Metrics, log)

	analyticsService := analytics.NewService(remote, remote, bookingStore, paymentStore, infra.Metrics, log)

	bookingHandler := booking_api.NewHandler(bookingService, stock, qr_generator.NewQRGenerator(cfg.Booking.QRSecret), log)
	paymentHandler := payment_api.NewHandler(paymentService, log)
	notificationHandler := notification_api.NewHandler(dispatcher, notificationStore, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	router, err := app.NewRouter(ctx, cfg.Auth, infra.Metrics, log, func(r chi.Router) {
		bookingHandler.RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)
		analyticsHandler.RegisterRoutes(r)
		log.Info("ROUTER", "Booking, payment, notification and analytics routes registered")
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
