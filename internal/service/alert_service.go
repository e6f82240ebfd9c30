package service

import (
	"context"
	"time"

	"signal-relay/internal/domain"
	"signal-relay/internal/store"
	"signal-relay/internal/ws"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type PriceOracle interface {
	GetPrice(symbol string) float64
}

type ChatChannel interface {
	SendAlert(ctx context.Context, sig domain.Signal) domain.ChatBotResult
}

type PushChannel interface {
	NotifyAll(ctx context.Context, sig domain.Signal) int
}

type Broadcaster interface {
	Broadcast(v any) int
	Count() int
}

type AutoTrader interface {
	ExecuteForSignal(ctx context.Context, sig domain.Signal) *domain.AutoTradeSummary
}

// SignalArchive is an optional write-behind mirror for dispatched signals.
type SignalArchive interface {
	SaveSignal(ctx context.Context, sig domain.Signal) error
}

// AlertService is the dispatch pipeline: price enrichment, record, then
// fan-out to every channel. Channel failures degrade to entries in the
// AlertResult, never to a lost signal.
type AlertService struct {
	tracer  trace.Tracer
	signals *store.SignalStore
	oracle  PriceOracle
	chat    ChatChannel
	push    PushChannel
	streams Broadcaster
	trader  AutoTrader
	archive SignalArchive
}

func NewAlertService(tracer trace.Tracer, signals *store.SignalStore, oracle PriceOracle, chat ChatChannel, push PushChannel, streams Broadcaster, trader AutoTrader, archive SignalArchive) *AlertService {
	return &AlertService{
		tracer:  tracer,
		signals: signals,
		oracle:  oracle,
		chat:    chat,
		push:    push,
		streams: streams,
		trader:  trader,
		archive: archive,
	}
}

// Dispatch enriches, records, and fans out one signal. The returned signal
// carries the completed AlertResult.
func (s *AlertService) Dispatch(ctx context.Context, sig domain.Signal) domain.Signal {
	ctx, span := s.tracer.Start(ctx, "alert-service.dispatch")
	defer span.End()

	sig.PriceAtAlert = s.oracle.GetPrice(sig.Symbol)
	sig.Status = domain.StatusPending
	s.signals.Append(sig)

	result := domain.AlertResult{
		Database:  true,
		Timestamp: time.Now().UTC(),
	}

	result.ChatBot = s.chat.SendAlert(ctx, sig)
	if !result.ChatBot.Success {
		log.Warn().Str("error", result.ChatBot.Error).Msg("chat alert failed")
	}

	result.WebPush = s.push.NotifyAll(ctx, sig)

	if s.streams.Count() > 0 {
		result.Streaming = s.streams.Broadcast(ws.SignalMessage{
			Type:      ws.TypeNewSignal,
			Data:      sig,
			Timestamp: time.Now().UTC(),
			Results:   result,
		})
	}

	if s.autoTradeAllowed(sig) {
		result.AutoTrade = s.trader.ExecuteForSignal(ctx, sig)
	}

	sig.Status = domain.StatusAlerted
	sig.Alert = &result
	s.signals.SetResult(sig.ID, &result)

	s.archiveSignal(ctx, sig)

	log.Info().
		Str("signal", sig.ID).
		Str("symbol", sig.Symbol).
		Bool("chatBot", result.ChatBot.Success).
		Int("webPush", result.WebPush).
		Int("websocket", result.Streaming).
		Msg("alert dispatch complete")
	return sig
}

// autoTradeAllowed keeps demo and smoke-test signals away from real
// brokerage accounts.
func (s *AlertService) autoTradeAllowed(sig domain.Signal) bool {
	return s.trader != nil && !sig.Demo && sig.Source != "test"
}

func (s *AlertService) archiveSignal(ctx context.Context, sig domain.Signal) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveSignal(ctx, sig); err != nil {
		log.Warn().Err(err).Str("signal", sig.ID).Msg("signal archive write failed")
	}
}
