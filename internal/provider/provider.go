package provider

import "context"

// Provider fetches spot prices for the requested symbols. A provider may
// return a partial map; the oracle fills the gaps. An empty map with a nil
// error is treated as a miss.
type Provider interface {
	Name() string
	FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}
