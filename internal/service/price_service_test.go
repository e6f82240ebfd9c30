package service

import (
	"context"
	"errors"
	"testing"

	"signal-relay/internal/domain"
	"signal-relay/internal/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type stubProvider struct {
	name   string
	prices map[string]float64
	err    error
	calls  int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.prices, nil
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestRefreshFirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "coingecko", prices: map[string]float64{
		"BTCUSDT": 47250.12, "ETHUSDT": 2610.5, "SOLUSDT": 104.2,
	}}
	second := &stubProvider{name: "cryptocompare", prices: map[string]float64{"BTCUSDT": 1}}

	svc := NewPriceService(testTracer(), []provider.Provider{first, second}, nil)
	snap := svc.Refresh(context.Background())

	if snap.Source != "coingecko" {
		t.Fatalf("expected source coingecko, got %s", snap.Source)
	}
	if snap.Prices["BTCUSDT"] != 47250.12 {
		t.Fatalf("unexpected BTC price: %f", snap.Prices["BTCUSDT"])
	}
	if second.calls != 0 {
		t.Fatalf("fallback provider should not have been called")
	}
}

func TestRefreshFallsThroughFailedProviders(t *testing.T) {
	first := &stubProvider{name: "coingecko", err: errors.New("rate limited")}
	second := &stubProvider{name: "cryptocompare", prices: map[string]float64{"BTCUSDT": 46000}}

	svc := NewPriceService(testTracer(), []provider.Provider{first, second}, nil)
	snap := svc.Refresh(context.Background())

	if snap.Source != "cryptocompare" {
		t.Fatalf("expected source cryptocompare, got %s", snap.Source)
	}
	if first.calls != 1 {
		t.Fatalf("expected first provider to be tried once, got %d", first.calls)
	}
}

func TestRefreshFillsMissingSymbols(t *testing.T) {
	partial := &stubProvider{name: "coingecko", prices: map[string]float64{"BTCUSDT": 46000}}

	svc := NewPriceService(testTracer(), []provider.Provider{partial}, nil)
	snap := svc.Refresh(context.Background())

	for _, sym := range domain.SupportedSymbols {
		if snap.Prices[sym] <= 0 {
			t.Fatalf("missing price for %s after refresh", sym)
		}
	}
}

func TestRefreshAllProvidersDownYieldsSimulated(t *testing.T) {
	down := &stubProvider{name: "coingecko", err: errors.New("timeout")}

	svc := NewPriceService(testTracer(), []provider.Provider{down}, nil)
	snap := svc.Refresh(context.Background())

	if snap.Source != "simulated" {
		t.Fatalf("expected simulated source, got %s", snap.Source)
	}
	btc := snap.Prices["BTCUSDT"]
	base := domain.BaselinePrice["BTCUSDT"]
	if btc < base*0.9 || btc > base*1.1 {
		t.Fatalf("simulated BTC price %f too far from baseline %f", btc, base)
	}
}

func TestGetPriceNeverFails(t *testing.T) {
	svc := NewPriceService(testTracer(), nil, nil)

	if p := svc.GetPrice("BTCUSDT"); p <= 0 {
		t.Fatalf("expected positive BTC price, got %f", p)
	}
	if p := svc.GetPrice("UNKNOWNUSDT"); p <= 0 {
		t.Fatalf("expected positive fallback for unknown symbol, got %f", p)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	stub := &stubProvider{name: "coingecko", prices: map[string]float64{
		"BTCUSDT": 46000, "ETHUSDT": 2600, "SOLUSDT": 101,
	}}
	svc := NewPriceService(testTracer(), []provider.Provider{stub}, nil)
	svc.Refresh(context.Background())

	snap := svc.Snapshot()
	snap.Prices["BTCUSDT"] = -1

	if svc.GetPrice("BTCUSDT") != 46000 {
		t.Fatalf("snapshot mutation leaked into the service")
	}
}

func TestSnapshotMirroredAndRestoredFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	stub := &stubProvider{name: "coingecko", prices: map[string]float64{
		"BTCUSDT": 48100, "ETHUSDT": 2700, "SOLUSDT": 108,
	}}
	svc := NewPriceService(testTracer(), []provider.Provider{stub}, client)
	svc.Refresh(context.Background())

	if !mr.Exists(priceSnapshotKey) {
		t.Fatalf("expected snapshot key in redis")
	}

	restored := NewPriceService(testTracer(), nil, client)
	if restored.GetPrice("BTCUSDT") != 48100 {
		t.Fatalf("expected restored BTC price 48100, got %f", restored.GetPrice("BTCUSDT"))
	}
	if restored.Snapshot().Source != "coingecko" {
		t.Fatalf("expected restored source coingecko, got %s", restored.Snapshot().Source)
	}
}
