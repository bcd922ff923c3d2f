package db

import (
	"context"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// Append inserts one notification record.
func (d *DB) Append(ctx context.Context, record *models.NotificationRecord) error {
	_, err := d.Bun.NewInsert().Model(record).Exec(ctx)
	return err
}

// List returns every record, newest first.
func (d *DB) List(ctx context.Context) ([]models.NotificationRecord, error) {
	records := make([]models.NotificationRecord, 0)
	err := d.Bun.NewSelect().
		Model(&records).
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
