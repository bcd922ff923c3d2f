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

// ---------------- BOOKINGS ----------------

func (d *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	_, err := d.Bun.NewInsert().Model(booking).Exec(ctx)
	return err
}

// GetBookingByID returns models.ErrNotFound when no row matches
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	booking.BookingDate = booking.BookingDate.UTC()
	return &booking, nil
}

func (d *DB) listWhere(ctx context.Context, column, value string) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	q := d.Bun.NewSelect().Model(&bookings).Order("booking_date ASC")
	if column != "" {
		q = q.Where("? = ?", bun.Ident(column), value)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].BookingDate = bookings[i].BookingDate.UTC()
	}
	return bookings, nil
}

func (d *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return d.listWhere(ctx, "", "")
}

func (d *DB) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return d.listWhere(ctx, "user_id", userID)
}

func (d *DB) ListBookingsByEvent(ctx context.Context, eventID string) ([]models.Booking, error) {
	return d.listWhere(ctx, "event_id", eventID)
}

func (d *DB) ListBookingsByOrganizer(ctx context.Context, organizerID string) ([]models.Booking, error) {
	return d.listWhere(ctx, "organizer_id", organizerID)
}

// UpdateBookingStatus writes the status even when it is unchanged.
func (d *DB) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ---------------- AGGREGATES ----------------

func (d *DB) CountBookings(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().Model((*models.Booking)(nil)).Count(ctx)
}

// SumRevenue adds totalPrice over every booking regardless of status.
func (d *DB) SumRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("COALESCE(SUM(total_price), 0)").
		Scan(ctx, &total)
	return total, err
}
