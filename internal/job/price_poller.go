package job

import (
	"context"
	"time"

	"signal-relay/internal/domain"
	"signal-relay/internal/ws"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type PriceRefresher interface {
	Refresh(ctx context.Context) domain.PriceSnapshot
}

type Broadcaster interface {
	Broadcast(v any) int
	Count() int
}

// PricePoller keeps the price cache warm and streams every refresh to
// connected clients.
type PricePoller struct {
	tracer   trace.Tracer
	prices   PriceRefresher
	streams  Broadcaster
	interval time.Duration
}

func NewPricePoller(tracer trace.Tracer, prices PriceRefresher, streams Broadcaster, intervalSecs int) *PricePoller {
	if intervalSecs <= 0 {
		intervalSecs = 10
	}
	return &PricePoller{
		tracer:   tracer,
		prices:   prices,
		streams:  streams,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start refreshes immediately, then on every tick. Blocks until ctx is
// cancelled.
func (p *PricePoller) Start(ctx context.Context) {
	log.Info().Dur("interval", p.interval).Msg("price poller starting")

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("price poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *PricePoller) tick(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "price-poller.tick")
	defer span.End()

	snap := p.prices.Refresh(ctx)
	if p.streams.Count() == 0 {
		return
	}
	p.streams.Broadcast(ws.PriceUpdateMessage{
		Type:      ws.TypePriceUpdate,
		Timestamp: snap.UpdatedAt,
		Prices:    snap.Prices,
		Source:    snap.Source,
	})
}
