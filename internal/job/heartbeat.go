package job

import (
	"context"
	"time"

	"signal-relay/internal/ws"

	"github.com/rs/zerolog/log"
)

// Heartbeat lets stream clients distinguish a quiet market from a dead
// connection.
type Heartbeat struct {
	streams  Broadcaster
	interval time.Duration
}

func NewHeartbeat(streams Broadcaster, intervalSecs int) *Heartbeat {
	if intervalSecs <= 0 {
		intervalSecs = 30
	}
	return &Heartbeat{
		streams:  streams,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (hb *Heartbeat) Start(ctx context.Context) {
	log.Info().Dur("interval", hb.interval).Msg("heartbeat starting")

	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("heartbeat stopped")
			return
		case <-ticker.C:
			if hb.streams.Count() == 0 {
				continue
			}
			hb.streams.Broadcast(ws.HeartbeatMessage{
				Type:      ws.TypeHeartbeat,
				Timestamp: time.Now().UTC(),
				Clients:   hb.streams.Count(),
			})
		}
	}
}
