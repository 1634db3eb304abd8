package storage

import (
	"context"
	"database/sql"
	"time"

	"storefront/agg-svc/internal/domain"
)

type PostgresCounter struct {
	DB *sql.DB
}

func NewPostgresCounter(db *sql.DB) *PostgresCounter {
	return &PostgresCounter{DB: db}
}

func (c *PostgresCounter) EnsureSchema(ctx context.Context) error {
	_, err := c.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dish_order_counts (
			dish_id INTEGER PRIMARY KEY,
			orders BIGINT NOT NULL DEFAULT 0,
			quantity BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// RecordDishes adds one order and the ordered quantity to each dish's
// running totals.
func (c *PostgresCounter) RecordDishes(ctx context.Context, at time.Time, items []domain.OrderedDish) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dish_order_counts (dish_id, orders, quantity, updated_at)
			VALUES ($1, 1, $2, $3)
			ON CONFLICT (dish_id) DO UPDATE
			SET orders = dish_order_counts.orders + 1,
				quantity = dish_order_counts.quantity + EXCLUDED.quantity,
				updated_at = EXCLUDED.updated_at
		`, item.DishID, item.Quantity, at)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
