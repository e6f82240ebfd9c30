package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signal-relay/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const cryptoCompareBaseURL = "https://min-api.cryptocompare.com"

// CryptoCompareProvider is the second source in the chain.
type CryptoCompareProvider struct {
	tracer  trace.Tracer
	client  *http.Client
	baseURL string
}

func NewCryptoCompareProvider(tracer trace.Tracer) *CryptoCompareProvider {
	return &CryptoCompareProvider{
		tracer:  tracer,
		client:  &http.Client{Timeout: 3 * time.Second},
		baseURL: cryptoCompareBaseURL,
	}
}

func (p *CryptoCompareProvider) Name() string { return "cryptocompare" }

func (p *CryptoCompareProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "cryptocompare.fetch-prices")
	defer span.End()

	fsyms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if base, ok := domain.CryptoCompareSym[s]; ok {
			fsyms = append(fsyms, base)
		}
	}
	if len(fsyms) == 0 {
		return nil, fmt.Errorf("no cryptocompare symbols for %v", symbols)
	}

	q := url.Values{}
	q.Set("fsyms", strings.Join(fsyms, ","))
	q.Set("tsyms", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/data/pricemulti?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cryptocompare status %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD float64 `json:"USD"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	prices := make(map[string]float64)
	for _, s := range symbols {
		base := domain.CryptoCompareSym[s]
		if quote, ok := body[base]; ok && quote.USD > 0 {
			prices[s] = quote.USD
		}
	}
	return prices, nil
}
