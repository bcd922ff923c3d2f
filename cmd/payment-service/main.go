package main

import (
	"context"

	"ms-booking/internal/app"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment"
	payment_db "ms-booking/internal/payment/db"
	"ms-booking/internal/payment/payment_api"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLoggerInDir("payment-service", cfg.LogDir)
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	log.Info("APP", "Starting Payment Service initialization")

	ctx := context.Background()
	infra, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatal("APP", err.Error())
	}
	defer infra.Close()

	gateway, err := app.PaymentGateway(cfg.Payment, log)
	if err != nil {
		log.Fatal("PAYMENT", err.Error())
	}
	var publisher payment.EventPublisher
	if infra.Producer != nil {
		publisher = infra.Producer
	}
	service := payment.NewPaymentService(&payment_db.DB{Bun: infra.DB}, gateway, publisher, infra.Metrics, log)
	handler := payment_api.NewHandler(service, log)

	router, err := app.NewRouter(ctx, cfg.Auth, infra.Metrics, log, handler.RegisterRoutes)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	if err := app.Serve(ctx, cfg.Server, router, log); err != nil {
		log.Error("APP", err.Error())
	}
}
