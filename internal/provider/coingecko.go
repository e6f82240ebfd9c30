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

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider is the first source in the oracle's chain; it answers for
// every supported asset in one request.
type CoinGeckoProvider struct {
	tracer  trace.Tracer
	client  *http.Client
	baseURL string
}

func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		tracer:  tracer,
		client:  &http.Client{Timeout: 3 * time.Second},
		baseURL: coinGeckoBaseURL,
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()

	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if id, ok := domain.CoinGeckoID[s]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no coingecko ids for %v", symbols)
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("precision", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko status %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	prices := make(map[string]float64)
	for _, s := range symbols {
		id := domain.CoinGeckoID[s]
		if quote, ok := body[id]; ok && quote.USD > 0 {
			prices[s] = quote.USD
		}
	}
	return prices, nil
}
