package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := d.Bun.NewInsert().Model(payment).Exec(ctx)
	return err
}

// GetPaymentByTransactionID returns models.ErrNotFound when no row matches
func (d *DB) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := d.Bun.NewSelect().
		Model(&payment).
		Where("transaction_id = ?", transactionID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePayment writes the mutable columns of an existing payment
func (d *DB) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	res, err := d.Bun.NewUpdate().
		Model(payment).
		Column("status", "gateway_reference", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *DB) listWhere(ctx context.Context, column, value string) ([]models.Payment, error) {
	payments := make([]models.Payment, 0)
	err := d.Bun.NewSelect().
		Model(&payments).
		Where("? = ?", bun.Ident(column), value).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (d *DB) ListPaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	return d.listWhere(ctx, "user_id", userID)
}

func (d *DB) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]models.Payment, error) {
	return d.listWhere(ctx, "booking_id", bookingID)
}

func (d *DB) CountPayments(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().Model((*models.Payment)(nil)).Count(ctx)
}
