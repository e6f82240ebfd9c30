package domain

var SupportedSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

// CoinGeckoID maps a trading symbol to its CoinGecko asset id.
var CoinGeckoID = map[string]string{
	"BTCUSDT": "bitcoin",
	"ETHUSDT": "ethereum",
	"SOLUSDT": "solana",
}

// CryptoCompareSym maps a trading symbol to its CryptoCompare base currency.
var CryptoCompareSym = map[string]string{
	"BTCUSDT": "BTC",
	"ETHUSDT": "ETH",
	"SOLUSDT": "SOL",
}

// BaselinePrice anchors the synthetic fallback when every provider is down.
var BaselinePrice = map[string]float64{
	"BTCUSDT": 45000,
	"ETHUSDT": 2500,
	"SOLUSDT": 100,
}

func IsSupportedSymbol(symbol string) bool {
	_, ok := CoinGeckoID[symbol]
	return ok
}
