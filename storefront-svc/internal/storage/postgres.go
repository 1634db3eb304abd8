package storage

import (
	"context"
	"database/sql"
	"errors"

	"storefront/storefront-svc/internal/domain"
)

const stateSchema = `
CREATE TABLE IF NOT EXISTS device_state (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (namespace, key)
)`

const archiveSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id               BIGINT PRIMARY KEY,
	customer_name    TEXT NOT NULL,
	customer_email   TEXT NOT NULL,
	restaurant_name  TEXT NOT NULL,
	payment_method   TEXT NOT NULL,
	total_amount     NUMERIC(10, 2) NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	order_id  BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	dish_id   INT NOT NULL,
	dish_name TEXT NOT NULL,
	quantity  INT NOT NULL,
	price     NUMERIC(10, 2) NOT NULL
)`

// PostgresStateStore is the relational alternative to RedisStateStore.
type PostgresStateStore struct {
	DB *sql.DB
}

func NewPostgresStateStore(db *sql.DB) *PostgresStateStore {
	return &PostgresStateStore{DB: db}
}

func (s *PostgresStateStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, stateSchema)
	return err
}

func (s *PostgresStateStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.DB.QueryRowContext(ctx,
		"SELECT value FROM device_state WHERE namespace = $1 AND key = $2",
		namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *PostgresStateStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO device_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		namespace, key, value)
	return err
}

func (s *PostgresStateStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.DB.ExecContext(ctx,
		"DELETE FROM device_state WHERE namespace = $1 AND key = $2",
		namespace, key)
	return err
}

// PostgresOrderArchive keeps a reporting copy of every confirmed order.
type PostgresOrderArchive struct {
	DB *sql.DB
}

func NewPostgresOrderArchive(db *sql.DB) *PostgresOrderArchive {
	return &PostgresOrderArchive{DB: db}
}

func (r *PostgresOrderArchive) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, archiveSchema)
	return err
}

// ArchiveOrder is idempotent on the order id.
func (r *PostgresOrderArchive) ArchiveOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, customer_email, restaurant_name, payment_method, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.CustomerName, order.CustomerEmail, order.RestaurantName,
		order.PaymentMethod, order.Total, order.Status, order.CreatedAt)
	if err != nil {
		return err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return tx.Commit()
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, dish_id, dish_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.ID, item.Name, item.Quantity, item.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}
