package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"go.opentelemetry.io/otel/trace"
)

type binancePriceLister interface {
	ListPrices(ctx context.Context) ([]*binance.SymbolPrice, error)
}

type binanceClient struct {
	client *binance.Client
}

func (c *binanceClient) ListPrices(ctx context.Context) ([]*binance.SymbolPrice, error) {
	return c.client.NewListPricesService().Do(ctx)
}

// BinanceProvider is the last external source before synthetic fallback.
// Public ticker endpoint, so no credentials are wired.
type BinanceProvider struct {
	tracer  trace.Tracer
	lister  binancePriceLister
	timeout time.Duration
}

func NewBinanceProvider(tracer trace.Tracer) *BinanceProvider {
	return &BinanceProvider{
		tracer:  tracer,
		lister:  &binanceClient{client: binance.NewClient("", "")},
		timeout: 2 * time.Second,
	}
}

func (p *BinanceProvider) Name() string { return "binance" }

func (p *BinanceProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-prices")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	listed, err := p.lister.ListPrices(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		wanted[s] = struct{}{}
	}

	prices := make(map[string]float64)
	for _, sp := range listed {
		if _, ok := wanted[sp.Symbol]; !ok {
			continue
		}
		v, err := strconv.ParseFloat(sp.Price, 64)
		if err != nil || v <= 0 {
			continue
		}
		prices[sp.Symbol] = v
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("binance returned no usable quotes")
	}
	return prices, nil
}
