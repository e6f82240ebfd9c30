package handler

import (
	"net/http"
	"testing"

	"signal-relay/internal/domain"

	"github.com/gin-gonic/gin"
)

func TestWebhookDispatchesCoercedSignal(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/webhook/tradingview", "", gin.H{
		"symbol":      "btcusdt",
		"signal":      "buy",
		"entry":       "45000.5",
		"sl":          44000,
		"tp1":         "46000",
		"confidence":  "90",
		"riskPercent": 2.5,
		"conditions":  gin.H{"lst": true, "mtf": true, "volume": true, "ai": true, "level": true},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}

	if len(env.dispatcher.dispatched) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(env.dispatcher.dispatched))
	}
	sig := env.dispatcher.dispatched[0]
	if sig.Symbol != "BTCUSDT" {
		t.Fatalf("expected upper-cased symbol, got %s", sig.Symbol)
	}
	if sig.Direction != domain.DirectionBuy {
		t.Fatalf("expected BUY, got %s", sig.Direction)
	}
	if sig.Classification != domain.ClassificationPure {
		t.Fatalf("all conditions met must classify PURE, got %s", sig.Classification)
	}
	if sig.Entry != 45000.5 || sig.StopLoss != 44000 || sig.TP1 != 46000 {
		t.Fatalf("numeric coercion wrong: %+v", sig)
	}
	if sig.Confidence != 90 {
		t.Fatalf("expected confidence 90, got %d", sig.Confidence)
	}
	if sig.RiskPercent != 2.5 {
		t.Fatalf("expected risk 2.5, got %f", sig.RiskPercent)
	}
	if sig.Source != "TradingView" {
		t.Fatalf("expected TradingView source, got %s", sig.Source)
	}
}

func TestWebhookDefaultsForMissingNumerics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/webhook/tradingview", "", gin.H{
		"symbol": "ETHUSDT",
		"signal": "SELL",
		"entry":  "not a number",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	sig := env.dispatcher.dispatched[0]
	if sig.Entry != 0 {
		t.Fatalf("unparseable entry must coerce to 0, got %f", sig.Entry)
	}
	if sig.Confidence != 75 {
		t.Fatalf("expected default confidence 75, got %d", sig.Confidence)
	}
	if sig.RiskPercent != 1.0 {
		t.Fatalf("expected default risk 1.0, got %f", sig.RiskPercent)
	}
	if sig.Classification != domain.ClassificationLST {
		t.Fatalf("no marker and no conditions must classify LST, got %s", sig.Classification)
	}
}

func TestWebhookExplicitPureMarker(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/webhook/tradingview", "", gin.H{
		"symbol": "BTCUSDT",
		"signal": "BUY",
		"type":   "PURE_SIGNAL",
	})
	if sig := env.dispatcher.dispatched[0]; sig.Classification != domain.ClassificationPure {
		t.Fatalf("explicit marker must classify PURE, got %s", sig.Classification)
	}
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	cases := []gin.H{
		{"signal": "BUY"},
		{"symbol": "BTCUSDT"},
		{},
	}
	for _, payload := range cases {
		w := env.do(t, http.MethodPost, "/webhook/tradingview", "", payload)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("payload %v: expected 400, got %d", payload, w.Code)
		}
		body := decodeBody(t, w)
		if body["success"] != false {
			t.Fatalf("expected structured error body, got %v", body)
		}
	}
	if len(env.dispatcher.dispatched) != 0 {
		t.Fatalf("rejected payloads must not dispatch")
	}
}

func TestWebhookRejectsUnknownDirection(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/webhook/tradingview", "", gin.H{
		"symbol": "BTCUSDT",
		"signal": "HOLD",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown direction, got %d", w.Code)
	}
}

func TestWebhookTestSendsDemoPair(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/webhook/test", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(env.dispatcher.dispatched) != 2 {
		t.Fatalf("expected 2 test signals, got %d", len(env.dispatcher.dispatched))
	}

	pure, lst := env.dispatcher.dispatched[0], env.dispatcher.dispatched[1]
	if pure.Classification != domain.ClassificationPure || pure.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected first test signal %+v", pure)
	}
	if lst.Classification != domain.ClassificationLST || lst.Direction != domain.DirectionSell {
		t.Fatalf("unexpected second test signal %+v", lst)
	}
	for _, sig := range env.dispatcher.dispatched {
		if !sig.Demo {
			t.Fatalf("test signals must be demo-flagged: %+v", sig)
		}
	}
	if pure.StopLoss >= pure.Entry || pure.TP1 <= pure.Entry {
		t.Fatalf("BUY bracket prices out of order: %+v", pure)
	}
}
