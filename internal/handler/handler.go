package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"signal-relay/internal/domain"
	"signal-relay/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, sig domain.Signal) domain.Signal
}

type PriceSource interface {
	Refresh(ctx context.Context) domain.PriceSnapshot
	GetPrice(symbol string) float64
}

type Brokerage interface {
	TestConnection(ctx context.Context, cfg domain.BrokerageConfig) (json.RawMessage, error)
	GetBalances(ctx context.Context, cfg domain.BrokerageConfig) (json.RawMessage, error)
	GetPositions(ctx context.Context, cfg domain.BrokerageConfig) (json.RawMessage, error)
}

type Streams interface {
	Broadcast(v any) int
	Count() int
	HandleConnection(w http.ResponseWriter, r *http.Request)
}

// ChannelStatus is the static channel configuration surfaced by /health and
// /notifications/status.
type ChannelStatus struct {
	ChatEnabled      bool
	ChatConfigured   bool
	ChatIDConfigured bool
	VAPIDPublicKey   string
	DashboardURL     string
}

type Handler struct {
	tracer     trace.Tracer
	dispatcher Dispatcher
	prices     PriceSource
	brokerage  Brokerage
	streams    Streams
	status     ChannelStatus

	users    *store.UserStore
	sessions *store.SessionStore
	signals  *store.SignalStore
	orders   *store.OrderStore
	subs     *store.SubscriptionStore
	tokens   *store.TokenStore
}

func New(
	tracer trace.Tracer,
	dispatcher Dispatcher,
	prices PriceSource,
	brokerage Brokerage,
	streams Streams,
	status ChannelStatus,
	users *store.UserStore,
	sessions *store.SessionStore,
	signals *store.SignalStore,
	orders *store.OrderStore,
	subs *store.SubscriptionStore,
	tokens *store.TokenStore,
) *Handler {
	return &Handler{
		tracer:     tracer,
		dispatcher: dispatcher,
		prices:     prices,
		brokerage:  brokerage,
		streams:    streams,
		status:     status,
		users:      users,
		sessions:   sessions,
		signals:    signals,
		orders:     orders,
		subs:       subs,
		tokens:     tokens,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook/tradingview", h.Webhook)
	r.GET("/webhook/test", h.WebhookTest)

	r.GET("/health", h.Health)
	r.GET("/prices", h.GetPrices)
	r.GET("/signals", h.GetSignals)
	r.GET("/notifications/status", h.NotificationsStatus)

	r.POST("/push/web/subscribe", h.SubscribeWebPush)
	r.GET("/push/web/public-key", h.WebPushPublicKey)
	r.POST("/push/mobile/register", h.RegisterMobileToken)

	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	authed := r.Group("/", h.RequireAuth)
	authed.GET("/api/auth/me", h.Me)
	authed.POST("/api/auth/logout", h.Logout)
	authed.POST("/api/delta/test-connection", h.TestBrokerageConnection)
	authed.POST("/api/delta/save-config", h.SaveBrokerageConfig)
	authed.GET("/api/delta/balance", h.BrokerageBalance)
	authed.GET("/api/delta/positions", h.BrokeragePositions)
	authed.POST("/api/user/toggle-algo", h.ToggleAlgo)
	authed.GET("/api/user/orders", h.UserOrders)
	authed.GET("/api/admin/users", h.RequireAdmin, h.AdminUsers)
	authed.GET("/api/admin/orders", h.RequireAdmin, h.AdminOrders)

	r.GET("/ws", func(c *gin.Context) {
		h.streams.HandleConnection(c.Writer, c.Request)
	})
}
