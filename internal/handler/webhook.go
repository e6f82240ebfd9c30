package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signal-relay/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// webhookRequest tolerates the loose typing of charting-platform payloads:
// numeric fields arrive as numbers or strings depending on the alert
// template.
type webhookRequest struct {
	Symbol      string            `json:"symbol"`
	Signal      string            `json:"signal"`
	Type        string            `json:"type"`
	Entry       any               `json:"entry"`
	SL          any               `json:"sl"`
	TP1         any               `json:"tp1"`
	TP2         any               `json:"tp2"`
	TP3         any               `json:"tp3"`
	RiskPercent any               `json:"riskPercent"`
	Confidence  any               `json:"confidence"`
	Timestamp   string            `json:"timestamp"`
	Demo        bool              `json:"demo"`
	Conditions  domain.Conditions `json:"conditions"`
}

func coerceFloat(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return fallback
}

func coerceInt(v any, fallback int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}

func (h *Handler) Webhook(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.webhook")
	defer span.End()

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid JSON body",
		})
		return
	}

	if req.Symbol == "" || req.Signal == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required fields: symbol and signal are required",
		})
		return
	}

	direction := domain.Direction(strings.ToUpper(strings.TrimSpace(req.Signal)))
	if !direction.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "signal must be BUY or SELL",
		})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	span.SetAttributes(attribute.String("symbol", symbol))

	createdAt := time.Now().UTC()
	if req.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			createdAt = ts
		}
	}

	sig := domain.Signal{
		ID:             "tv_" + uuid.NewString(),
		Symbol:         symbol,
		Direction:      direction,
		Classification: domain.Classify(req.Type, req.Conditions),
		Entry:          coerceFloat(req.Entry, 0),
		StopLoss:       coerceFloat(req.SL, 0),
		TP1:            coerceFloat(req.TP1, 0),
		TP2:            coerceFloat(req.TP2, 0),
		TP3:            coerceFloat(req.TP3, 0),
		RiskPercent:    coerceFloat(req.RiskPercent, 1.0),
		Confidence:     coerceInt(req.Confidence, 75),
		Source:         "TradingView",
		Demo:           req.Demo,
		CreatedAt:      createdAt,
		Status:         domain.StatusPending,
		Conditions:     req.Conditions,
	}

	log.Info().Str("symbol", sig.Symbol).Str("direction", string(sig.Direction)).Str("type", string(sig.Classification)).Msg("webhook signal received")

	dispatched := h.dispatcher.Dispatch(ctx, sig)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signal received and alerts sent successfully",
		"signal":  dispatched,
		"alerts":  dispatched.Alert,
		"stats": gin.H{
			"totalSignals":     h.signals.Count(),
			"webSubscribers":   h.subs.Count(),
			"webSocketClients": h.streams.Count(),
		},
	})
}

// WebhookTest dispatches one synthetic PURE and one synthetic LST signal.
// Both are demo-flagged so they never reach brokerage accounts.
func (h *Handler) WebhookTest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.webhook-test")
	defer span.End()

	btc := h.prices.GetPrice("BTCUSDT")
	eth := h.prices.GetPrice("ETHUSDT")
	now := time.Now().UTC()

	testSignals := []domain.Signal{
		{
			ID:             fmt.Sprintf("test_pure_%d", now.UnixMilli()),
			Symbol:         "BTCUSDT",
			Direction:      domain.DirectionBuy,
			Classification: domain.ClassificationPure,
			Entry:          btc,
			StopLoss:       btc * 0.98,
			TP1:            btc * 1.03,
			TP2:            btc * 1.05,
			TP3:            btc * 1.08,
			RiskPercent:    1.5,
			Confidence:     85,
			Source:         "TEST",
			Demo:           true,
			CreatedAt:      now,
			Status:         domain.StatusPending,
			Conditions:     domain.Conditions{LST: true, MTF: true, Volume: true, AI: true, Level: true},
		},
		{
			ID:             fmt.Sprintf("test_lst_%d", now.UnixMilli()),
			Symbol:         "ETHUSDT",
			Direction:      domain.DirectionSell,
			Classification: domain.ClassificationLST,
			Entry:          eth,
			StopLoss:       eth * 1.02,
			TP1:            eth * 0.97,
			TP2:            eth * 0.95,
			TP3:            eth * 0.92,
			RiskPercent:    1.0,
			Confidence:     70,
			Source:         "TEST",
			Demo:           true,
			CreatedAt:      now,
			Status:         domain.StatusPending,
			Conditions:     domain.Conditions{LST: true, Volume: true, AI: true},
		},
	}

	dispatched := make([]domain.Signal, 0, len(testSignals))
	for _, sig := range testSignals {
		dispatched = append(dispatched, h.dispatcher.Dispatch(ctx, sig))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Test signals sent successfully",
		"signals": dispatched,
		"currentPrices": gin.H{
			"BTCUSDT": btc,
			"ETHUSDT": eth,
			"SOLUSDT": h.prices.GetPrice("SOLUSDT"),
		},
	})
}
