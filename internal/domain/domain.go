package domain

import "time"

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

func (d Direction) IsValid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// PositionLabel renders the direction the way traders read it in alerts.
func (d Direction) PositionLabel() string {
	if d == DirectionBuy {
		return "LONG"
	}
	return "SHORT"
}

type Classification string

const (
	ClassificationPure Classification = "PURE_SIGNAL"
	ClassificationLST  Classification = "LST_SIGNAL"
)

type SignalStatus string

const (
	StatusPending SignalStatus = "pending"
	StatusAlerted SignalStatus = "alerted"
)

// Conditions are the named corroborating checks attached to a signal by the
// charting platform.
type Conditions struct {
	LST    bool `json:"lst"`
	MTF    bool `json:"mtf"`
	Volume bool `json:"volume"`
	AI     bool `json:"ai"`
	Level  bool `json:"level"`
}

func (c Conditions) AllMet() bool {
	return c.LST && c.MTF && c.Volume && c.AI && c.Level
}

// Classify returns PURE when the payload carries an explicit marker or every
// corroborating check holds; anything else is LST.
func Classify(explicitType string, c Conditions) Classification {
	if Classification(explicitType) == ClassificationPure || c.AllMet() {
		return ClassificationPure
	}
	return ClassificationLST
}

type Signal struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Direction      Direction      `json:"signal"`
	Classification Classification `json:"type"`
	Entry          float64        `json:"entry"`
	StopLoss       float64        `json:"sl"`
	TP1            float64        `json:"tp1"`
	TP2            float64        `json:"tp2,omitempty"`
	TP3            float64        `json:"tp3,omitempty"`
	RiskPercent    float64        `json:"riskPercent"`
	Confidence     int            `json:"confidence"`
	Source         string         `json:"source"`
	Demo           bool           `json:"demo"`
	CreatedAt      time.Time      `json:"timestamp"`
	PriceAtAlert   float64        `json:"currentMarketPrice"`
	Status         SignalStatus   `json:"status"`
	Conditions     Conditions     `json:"conditions"`
	Alert          *AlertResult   `json:"alerts,omitempty"`
}

type BrokerageConfig struct {
	APIKey      string    `json:"apiKey"`
	APISecret   string    `json:"-"`
	Testnet     bool      `json:"testnet"`
	ConnectedAt time.Time `json:"connectedAt"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Password    string           `json:"-"`
	Role        string           `json:"role"`
	CreatedAt   time.Time        `json:"createdAt"`
	Brokerage   *BrokerageConfig `json:"brokerage,omitempty"`
	AlgoEnabled bool             `json:"algoEnabled"`
}

// AlgoEligible reports whether auto-trading may target this user. The
// AlgoEnabled flag alone is not sufficient: brokerage credentials must exist.
func (u User) AlgoEligible() bool {
	return u.AlgoEnabled && u.Brokerage != nil
}

type OrderStatus string

const (
	OrderExecuted OrderStatus = "executed"
	OrderFailed   OrderStatus = "failed"
)

type TradeOrder struct {
	UserID     string      `json:"userId"`
	OrderID    string      `json:"orderId"`
	Symbol     string      `json:"symbol"`
	Side       string      `json:"side"`
	Size       float64     `json:"size"`
	FillPrice  float64     `json:"fillPrice"`
	SignalID   string      `json:"signalId"`
	Status     OrderStatus `json:"status"`
	ExecutedAt time.Time   `json:"executedAt"`
	Testnet    bool        `json:"testnet"`
}

// TradeResult is the gateway's per-user outcome, reduced to a value.
type TradeResult struct {
	Success bool        `json:"success"`
	Order   *TradeOrder `json:"order,omitempty"`
	Message string      `json:"message,omitempty"`
}

type TradeDetail struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type AutoTradeSummary struct {
	Total    int           `json:"total"`
	Executed int           `json:"executed"`
	Failed   int           `json:"failed"`
	Details  []TradeDetail `json:"details"`
}

type ChatBotResult struct {
	Success     bool   `json:"success"`
	MessageID   int    `json:"messageId,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        int    `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// AlertResult aggregates per-channel outcomes for one signal. Exactly one is
// produced per dispatched signal and embedded in it.
type AlertResult struct {
	ChatBot   ChatBotResult     `json:"chatBot"`
	WebPush   int               `json:"webPush"`
	Streaming int               `json:"websocket"`
	Database  bool              `json:"database"`
	AutoTrade *AutoTradeSummary `json:"autoTrades,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type PushSubscriptionKeys struct {
	Auth   string `json:"auth"`
	P256dh string `json:"p256dh"`
}

type PushSubscription struct {
	Endpoint  string               `json:"endpoint"`
	Keys      PushSubscriptionKeys `json:"keys"`
	CreatedAt time.Time            `json:"createdAt"`
}

type DeviceToken struct {
	Token      string    `json:"token"`
	Platform   string    `json:"platform"`
	Registered time.Time `json:"registered"`
}

// PriceSnapshot is the oracle's whole-sale cache value: every supported symbol
// is present after a refresh, whatever mix of sources produced it.
type PriceSnapshot struct {
	Prices    map[string]float64 `json:"prices"`
	Source    string             `json:"source"`
	UpdatedAt time.Time          `json:"timestamp"`
}
