package repository

import (
	"context"

	"signal-relay/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// OrderArchive mirrors executed trades into Postgres, same write-behind
// contract as the signal archive.
type OrderArchive struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewOrderArchive(pool PgxPool, tracer trace.Tracer) *OrderArchive {
	return &OrderArchive{pool: pool, tracer: tracer}
}

func (r *OrderArchive) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "order-archive.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trade_orders (
			order_id    TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL,
			size        DOUBLE PRECISION NOT NULL,
			fill_price  DOUBLE PRECISION NOT NULL,
			signal_id   TEXT NOT NULL,
			status      TEXT NOT NULL,
			testnet     BOOLEAN NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trade_orders_user ON trade_orders (user_id, executed_at DESC);
	`)
	return err
}

func (r *OrderArchive) SaveOrder(ctx context.Context, order domain.TradeOrder) error {
	_, span := r.tracer.Start(ctx, "order-archive.save-order")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO trade_orders (order_id, user_id, symbol, side, size, fill_price,
		                           signal_id, status, testnet, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (order_id) DO NOTHING`,
		order.OrderID,
		order.UserID,
		order.Symbol,
		order.Side,
		order.Size,
		order.FillPrice,
		order.SignalID,
		order.Status,
		order.Testnet,
		order.ExecutedAt.UTC(),
	)
	return err
}
