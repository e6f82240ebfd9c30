package handler

import (
	"net/http"
	"time"

	"signal-relay/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (h *Handler) SubscribeWebPush(c *gin.Context) {
	var sub domain.PushSubscription
	if err := c.ShouldBindJSON(&sub); err != nil || sub.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "subscription with endpoint is required"})
		return
	}
	sub.CreatedAt = time.Now().UTC()

	created := h.subs.Upsert(sub)
	if created {
		log.Info().Str("endpoint", sub.Endpoint).Msg("new web push subscription")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"created": created,
		"count":   h.subs.Count(),
	})
}

func (h *Handler) WebPushPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.status.VAPIDPublicKey})
}

func (h *Handler) RegisterMobileToken(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "token is required"})
		return
	}
	if req.Platform == "" {
		req.Platform = "unknown"
	}

	if h.tokens.Register(req.Token, req.Platform) {
		log.Info().Str("platform", req.Platform).Msg("new mobile push token registered")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   h.tokens.Count(),
		"message": "Token registered successfully",
	})
}
