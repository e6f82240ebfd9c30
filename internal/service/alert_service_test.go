package service

import (
	"context"
	"testing"

	"signal-relay/internal/domain"
	"signal-relay/internal/store"
	"signal-relay/internal/ws"
)

type stubOracle struct{ price float64 }

func (s stubOracle) GetPrice(symbol string) float64 { return s.price }

type stubChat struct {
	result domain.ChatBotResult
	sent   []domain.Signal
}

func (s *stubChat) SendAlert(ctx context.Context, sig domain.Signal) domain.ChatBotResult {
	s.sent = append(s.sent, sig)
	return s.result
}

type stubPush struct {
	count int
	sent  []domain.Signal
}

func (s *stubPush) NotifyAll(ctx context.Context, sig domain.Signal) int {
	s.sent = append(s.sent, sig)
	return s.count
}

type stubBroadcaster struct {
	clients   int
	broadcast []any
}

func (s *stubBroadcaster) Broadcast(v any) int {
	s.broadcast = append(s.broadcast, v)
	return s.clients
}

func (s *stubBroadcaster) Count() int { return s.clients }

type stubTrader struct {
	summary *domain.AutoTradeSummary
	calls   int
}

func (s *stubTrader) ExecuteForSignal(ctx context.Context, sig domain.Signal) *domain.AutoTradeSummary {
	s.calls++
	return s.summary
}

type stubSignalArchive struct {
	saved []domain.Signal
}

func (s *stubSignalArchive) SaveSignal(ctx context.Context, sig domain.Signal) error {
	s.saved = append(s.saved, sig)
	return nil
}

func liveSignal() domain.Signal {
	return domain.Signal{
		ID:             "sig-1",
		Symbol:         "BTCUSDT",
		Direction:      domain.DirectionBuy,
		Classification: domain.ClassificationPure,
		Entry:          45000,
		Source:         "tradingview",
	}
}

func TestDispatchFansOutToEveryChannel(t *testing.T) {
	signals := store.NewSignalStore()
	chat := &stubChat{result: domain.ChatBotResult{Success: true, MessageID: 7}}
	push := &stubPush{count: 3}
	streams := &stubBroadcaster{clients: 2}
	trader := &stubTrader{summary: &domain.AutoTradeSummary{Total: 1, Executed: 1}}
	archive := &stubSignalArchive{}

	svc := NewAlertService(testTracer(), signals, stubOracle{price: 45100}, chat, push, streams, trader, archive)
	dispatched := svc.Dispatch(context.Background(), liveSignal())

	if dispatched.PriceAtAlert != 45100 {
		t.Fatalf("expected oracle price stamped on the signal, got %f", dispatched.PriceAtAlert)
	}
	if dispatched.Status != domain.StatusAlerted {
		t.Fatalf("expected alerted status, got %s", dispatched.Status)
	}
	if dispatched.Alert == nil {
		t.Fatalf("expected the alert result embedded")
	}
	if !dispatched.Alert.ChatBot.Success || dispatched.Alert.ChatBot.MessageID != 7 {
		t.Fatalf("unexpected chat result %+v", dispatched.Alert.ChatBot)
	}
	if dispatched.Alert.WebPush != 3 {
		t.Fatalf("expected 3 push deliveries, got %d", dispatched.Alert.WebPush)
	}
	if dispatched.Alert.Streaming != 2 {
		t.Fatalf("expected 2 stream deliveries, got %d", dispatched.Alert.Streaming)
	}
	if !dispatched.Alert.Database {
		t.Fatalf("expected database flag set")
	}
	if dispatched.Alert.AutoTrade == nil || dispatched.Alert.AutoTrade.Executed != 1 {
		t.Fatalf("unexpected auto-trade summary %+v", dispatched.Alert.AutoTrade)
	}

	if len(chat.sent) != 1 || chat.sent[0].PriceAtAlert != 45100 {
		t.Fatalf("chat channel must see the enriched signal, got %+v", chat.sent)
	}
	if len(streams.broadcast) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(streams.broadcast))
	}
	if msg, ok := streams.broadcast[0].(ws.SignalMessage); !ok || msg.Type != ws.TypeNewSignal {
		t.Fatalf("unexpected broadcast payload %+v", streams.broadcast[0])
	}

	stored, ok := signals.Get("sig-1")
	if !ok {
		t.Fatalf("signal missing from store")
	}
	if stored.Status != domain.StatusAlerted || stored.Alert == nil {
		t.Fatalf("store not updated with the alert result: %+v", stored)
	}
	if len(archive.saved) != 1 {
		t.Fatalf("expected one archive write, got %d", len(archive.saved))
	}
}

func TestDispatchSkipsAutoTradeForDemoSignals(t *testing.T) {
	trader := &stubTrader{summary: &domain.AutoTradeSummary{}}
	svc := NewAlertService(testTracer(), store.NewSignalStore(), stubOracle{price: 1}, &stubChat{}, &stubPush{}, &stubBroadcaster{}, trader, nil)

	sig := liveSignal()
	sig.Demo = true
	dispatched := svc.Dispatch(context.Background(), sig)

	if trader.calls != 0 {
		t.Fatalf("demo signals must not reach the trader")
	}
	if dispatched.Alert.AutoTrade != nil {
		t.Fatalf("expected no auto-trade summary for demo signals")
	}
}

func TestDispatchSkipsAutoTradeForTestSource(t *testing.T) {
	trader := &stubTrader{summary: &domain.AutoTradeSummary{}}
	svc := NewAlertService(testTracer(), store.NewSignalStore(), stubOracle{price: 1}, &stubChat{}, &stubPush{}, &stubBroadcaster{}, trader, nil)

	sig := liveSignal()
	sig.Source = "test"
	svc.Dispatch(context.Background(), sig)

	if trader.calls != 0 {
		t.Fatalf("test-source signals must not reach the trader")
	}
}

func TestDispatchChannelFailuresDoNotLoseTheSignal(t *testing.T) {
	signals := store.NewSignalStore()
	chat := &stubChat{result: domain.ChatBotResult{Success: false, Error: "bot connection failed"}}
	svc := NewAlertService(testTracer(), signals, stubOracle{price: 1}, chat, &stubPush{count: 0}, &stubBroadcaster{clients: 0}, &stubTrader{summary: &domain.AutoTradeSummary{}}, nil)

	dispatched := svc.Dispatch(context.Background(), liveSignal())

	if dispatched.Alert.ChatBot.Success {
		t.Fatalf("expected chat failure recorded")
	}
	if dispatched.Alert.Streaming != 0 {
		t.Fatalf("no clients means no stream deliveries")
	}
	if _, ok := signals.Get("sig-1"); !ok {
		t.Fatalf("signal must be recorded whatever the channels did")
	}
	if dispatched.Status != domain.StatusAlerted {
		t.Fatalf("expected alerted status, got %s", dispatched.Status)
	}
}
