package handler

import (
	"errors"
	"net/http"
	"time"

	"signal-relay/internal/domain"
	"signal-relay/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (h *Handler) TestBrokerageConnection(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.test-brokerage-connection")
	defer span.End()

	var req struct {
		APIKey    string `json:"apiKey"`
		APISecret string `json:"apiSecret"`
		Testnet   bool   `json:"testnet"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.APIKey == "" || req.APISecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "API Key and Secret are required"})
		return
	}

	cfg := domain.BrokerageConfig{APIKey: req.APIKey, APISecret: req.APISecret, Testnet: req.Testnet}
	balances, err := h.brokerage.TestConnection(ctx, cfg)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Failed to connect to exchange",
			"error":   err.Error(),
		})
		return
	}

	log.Info().Str("email", currentUser(c).Email).Msg("exchange connection verified")
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Exchange connected successfully",
		"balances": balances,
		"testnet":  req.Testnet,
	})
}

func (h *Handler) SaveBrokerageConfig(c *gin.Context) {
	var req struct {
		APIKey    string `json:"apiKey"`
		APISecret string `json:"apiSecret"`
		Testnet   bool   `json:"testnet"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.APIKey == "" || req.APISecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "API Key and Secret are required"})
		return
	}

	user := currentUser(c)
	cfg := domain.BrokerageConfig{
		APIKey:      req.APIKey,
		APISecret:   req.APISecret,
		Testnet:     req.Testnet,
		ConnectedAt: time.Now().UTC(),
	}
	if err := h.users.SetBrokerage(user.ID, cfg); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	log.Info().Str("email", user.Email).Bool("testnet", req.Testnet).Msg("brokerage config saved")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Exchange configuration saved",
		"connected": true,
		"testnet":   req.Testnet,
	})
}

// ToggleAlgo flips auto-trading for the caller. Enabling without brokerage
// credentials is the invariant violation the store reports.
func (h *Handler) ToggleAlgo(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "enabled flag is required"})
		return
	}

	user := currentUser(c)
	if err := h.users.SetAlgoEnabled(user.ID, req.Enabled); err != nil {
		if errors.Is(err, store.ErrBrokerageRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please connect exchange API first"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	message := "Algo trading disabled"
	if req.Enabled {
		message = "Algo trading enabled"
	}
	log.Info().Str("email", user.Email).Bool("enabled", req.Enabled).Msg("algo trading toggled")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "algoEnabled": req.Enabled})
}

func (h *Handler) BrokerageBalance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.brokerage-balance")
	defer span.End()

	user := currentUser(c)
	if user.Brokerage == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Exchange not connected"})
		return
	}

	balances, err := h.brokerage.GetBalances(ctx, *user.Brokerage)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to fetch balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "balances": balances})
}

func (h *Handler) BrokeragePositions(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.brokerage-positions")
	defer span.End()

	user := currentUser(c)
	if user.Brokerage == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Exchange not connected"})
		return
	}

	positions, err := h.brokerage.GetPositions(ctx, *user.Brokerage)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to fetch positions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "positions": positions})
}

func (h *Handler) UserOrders(c *gin.Context) {
	user := currentUser(c)
	orders := h.orders.ByUser(user.ID, 50)
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders, "count": len(orders)})
}

func (h *Handler) AdminUsers(c *gin.Context) {
	users := h.users.All()
	summaries := make([]gin.H, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, gin.H{
			"id":             u.ID,
			"name":           u.Name,
			"email":          u.Email,
			"role":           u.Role,
			"createdAt":      u.CreatedAt,
			"algoEnabled":    u.AlgoEnabled,
			"deltaConnected": u.Brokerage != nil,
			"deltaTestnet":   u.Brokerage != nil && u.Brokerage.Testnet,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": summaries, "count": len(summaries)})
}

func (h *Handler) AdminOrders(c *gin.Context) {
	orders := h.orders.Recent(100)
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders, "count": len(orders)})
}
