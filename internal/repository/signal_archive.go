package repository

import (
	"context"
	"encoding/json"

	"signal-relay/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// SignalArchive mirrors dispatched signals into Postgres. It is a
// write-behind copy for later analysis; the in-memory store stays the system
// of record and nothing on the alert path reads from here.
type SignalArchive struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalArchive(pool PgxPool, tracer trace.Tracer) *SignalArchive {
	return &SignalArchive{pool: pool, tracer: tracer}
}

func (r *SignalArchive) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-archive.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signals (
			id              TEXT PRIMARY KEY,
			symbol          TEXT NOT NULL,
			direction       TEXT NOT NULL,
			classification  TEXT NOT NULL,
			entry           DOUBLE PRECISION NOT NULL,
			stop_loss       DOUBLE PRECISION NOT NULL,
			tp1             DOUBLE PRECISION NOT NULL,
			risk_percent    DOUBLE PRECISION NOT NULL,
			confidence      INT NOT NULL,
			source          TEXT NOT NULL,
			demo            BOOLEAN NOT NULL,
			price_at_alert  DOUBLE PRECISION NOT NULL,
			status          TEXT NOT NULL,
			conditions      JSONB NOT NULL,
			alert           JSONB,
			created_at      TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_signals_symbol_created ON signals (symbol, created_at DESC);
	`)
	return err
}

func (r *SignalArchive) SaveSignal(ctx context.Context, sig domain.Signal) error {
	_, span := r.tracer.Start(ctx, "signal-archive.save-signal")
	defer span.End()

	conditions, err := json.Marshal(sig.Conditions)
	if err != nil {
		return err
	}
	var alert []byte
	if sig.Alert != nil {
		if alert, err = json.Marshal(sig.Alert); err != nil {
			return err
		}
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO signals (id, symbol, direction, classification, entry, stop_loss, tp1,
		                      risk_percent, confidence, source, demo, price_at_alert, status,
		                      conditions, alert, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (id) DO UPDATE SET
		     status = EXCLUDED.status,
		     price_at_alert = EXCLUDED.price_at_alert,
		     alert = EXCLUDED.alert`,
		sig.ID,
		sig.Symbol,
		string(sig.Direction),
		string(sig.Classification),
		sig.Entry,
		sig.StopLoss,
		sig.TP1,
		sig.RiskPercent,
		sig.Confidence,
		sig.Source,
		sig.Demo,
		sig.PriceAtAlert,
		string(sig.Status),
		conditions,
		alert,
		sig.CreatedAt.UTC(),
	)
	return err
}
