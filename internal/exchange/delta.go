package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signal-relay/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	mainnetBaseURL = "https://api.delta.exchange"
	testnetBaseURL = "https://testnet-api.delta.exchange"
)

// DeltaClient talks to the Delta Exchange REST API with per-request HMAC
// signing. Credentials are passed per call, never stored on the client.
type DeltaClient struct {
	tracer     trace.Tracer
	httpClient *http.Client

	mainnetURL string
	testnetURL string
}

func NewDeltaClient(tracer trace.Tracer) *DeltaClient {
	return &DeltaClient{
		tracer:     tracer,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		mainnetURL: mainnetBaseURL,
		testnetURL: testnetBaseURL,
	}
}

// sign produces the hex HMAC-SHA256 over method + timestamp + path + body,
// the exact concatenation Delta verifies.
func sign(secret, method, timestamp, path, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + timestamp + path + body))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *DeltaClient) baseURL(testnet bool) string {
	if testnet {
		return c.testnetURL
	}
	return c.mainnetURL
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *DeltaClient) signedRequest(ctx context.Context, cfg domain.BrokerageConfig, method, path string, payload any) (*apiEnvelope, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling order payload: %w", err)
		}
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := sign(cfg.APISecret, method, timestamp, path, string(body))

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(cfg.Testnet)+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", cfg.APIKey)
	req.Header.Set("signature", signature)
	req.Header.Set("timestamp", timestamp)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling exchange: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding exchange response: %w", err)
	}
	if !envelope.Success {
		msg := "exchange request rejected"
		if envelope.Error != nil && envelope.Error.Message != "" {
			msg = envelope.Error.Message
		} else if envelope.Error != nil && envelope.Error.Code != "" {
			msg = envelope.Error.Code
		}
		return &envelope, fmt.Errorf("%s", msg)
	}
	return &envelope, nil
}

// TestConnection verifies the supplied credentials by fetching wallet
// balances with them. The balances come back so callers can show them.
func (c *DeltaClient) TestConnection(ctx context.Context, cfg domain.BrokerageConfig) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "delta-client.test-connection")
	defer span.End()

	envelope, err := c.signedRequest(ctx, cfg, http.MethodGet, "/v2/wallet/balances", nil)
	if err != nil {
		return nil, err
	}
	return envelope.Result, nil
}

func (c *DeltaClient) GetBalances(ctx context.Context, cfg domain.BrokerageConfig) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "delta-client.get-balances")
	defer span.End()

	envelope, err := c.signedRequest(ctx, cfg, http.MethodGet, "/v2/wallet/balances", nil)
	if err != nil {
		return nil, err
	}
	return envelope.Result, nil
}

func (c *DeltaClient) GetPositions(ctx context.Context, cfg domain.BrokerageConfig) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "delta-client.get-positions")
	defer span.End()

	envelope, err := c.signedRequest(ctx, cfg, http.MethodGet, "/v2/positions", nil)
	if err != nil {
		return nil, err
	}
	return envelope.Result, nil
}

type orderPayload struct {
	ProductSymbol   string  `json:"product_symbol"`
	Size            int     `json:"size"`
	Side            string  `json:"side"`
	OrderType       string  `json:"order_type"`
	StopLossPrice   *string `json:"stop_loss_price"`
	TakeProfitPrice *string `json:"take_profit_price"`
}

type orderResult struct {
	ID               int64  `json:"id"`
	AverageFillPrice string `json:"average_fill_price"`
}

// productSymbol maps a charting-platform symbol onto the exchange's
// perpetual contract naming. USDT pairs trade as USD on Delta.
func productSymbol(symbol string) string {
	return strings.Replace(symbol, "USDT", "USD", 1)
}

func optionalPrice(v float64) *string {
	if v <= 0 {
		return nil
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return &s
}

// Execute places a market order for one user against a signal. Traders who
// are not eligible get a declined result, never an error: a TradeResult is
// always returned so the fan-out can account for every user.
func (c *DeltaClient) Execute(ctx context.Context, user domain.User, sig domain.Signal) domain.TradeResult {
	ctx, span := c.tracer.Start(ctx, "delta-client.execute")
	defer span.End()

	if !user.AlgoEligible() {
		return domain.TradeResult{Success: false, Message: "algo trading not enabled or brokerage not connected"}
	}
	cfg := *user.Brokerage

	payload := orderPayload{
		ProductSymbol:   productSymbol(sig.Symbol),
		Size:            1,
		Side:            strings.ToLower(string(sig.Direction)),
		OrderType:       "market_order",
		StopLossPrice:   optionalPrice(sig.StopLoss),
		TakeProfitPrice: optionalPrice(sig.TP1),
	}

	envelope, err := c.signedRequest(ctx, cfg, http.MethodPost, "/v2/orders", payload)
	if err != nil {
		log.Error().Str("user", user.Email).Str("symbol", sig.Symbol).Err(err).Msg("trade execution failed")
		return domain.TradeResult{Success: false, Message: err.Error()}
	}

	var placed orderResult
	if err := json.Unmarshal(envelope.Result, &placed); err != nil {
		return domain.TradeResult{Success: false, Message: "unreadable order result"}
	}

	fillPrice, _ := strconv.ParseFloat(placed.AverageFillPrice, 64)
	if fillPrice <= 0 {
		fillPrice = sig.Entry
	}

	order := domain.TradeOrder{
		UserID:     user.ID,
		OrderID:    strconv.FormatInt(placed.ID, 10),
		Symbol:     sig.Symbol,
		Side:       payload.Side,
		Size:       float64(payload.Size),
		FillPrice:  fillPrice,
		SignalID:   sig.ID,
		Status:     domain.OrderExecuted,
		ExecutedAt: time.Now().UTC(),
		Testnet:    cfg.Testnet,
	}

	log.Info().Str("user", user.Email).Str("side", payload.Side).Str("product", payload.ProductSymbol).Msg("trade executed")
	return domain.TradeResult{Success: true, Order: &order, Message: "trade executed successfully"}
}
