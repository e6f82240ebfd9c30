package ws

import (
	"time"

	"signal-relay/internal/domain"
)

// Envelope type tags. Every frame on the wire carries exactly one of these.
const (
	TypeWelcome            = "WELCOME"
	TypeSubscribeSignals   = "SUBSCRIBE_SIGNALS"
	TypeSubscribeConfirmed = "SUBSCRIBE_CONFIRMED"
	TypePing               = "PING"
	TypePong               = "PONG"
	TypeHeartbeat          = "HEARTBEAT"
	TypePriceUpdate        = "PRICE_UPDATE"
	TypeNewSignal          = "NEW_SIGNAL"
	TypeTradeExecuted      = "TRADE_EXECUTED"
	TypeTradeFailed        = "TRADE_FAILED"
	TypeShutdown           = "SHUTDOWN"
)

type inboundMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

type welcomeMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Clients   int       `json:"clients"`
	Features  []string  `json:"features"`
}

type confirmMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type pongMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type HeartbeatMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Clients   int       `json:"clients"`
}

type PriceUpdateMessage struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Prices    map[string]float64 `json:"prices"`
	Source    string             `json:"source"`
}

type SignalMessage struct {
	Type      string             `json:"type"`
	Data      domain.Signal      `json:"data"`
	Timestamp time.Time          `json:"timestamp"`
	Results   domain.AlertResult `json:"alertResults"`
}

type TradeExecutedMessage struct {
	Type   string             `json:"type"`
	Signal domain.Signal      `json:"signal"`
	Trade  domain.TradeResult `json:"trade"`
}

type TradeFailedMessage struct {
	Type   string        `json:"type"`
	Signal domain.Signal `json:"signal"`
	Error  string        `json:"error"`
}

type shutdownMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
