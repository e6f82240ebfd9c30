package handler

import (
	"net/http"
	"time"

	"signal-relay/internal/ws"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "signal-relay",
		"timestamp": time.Now().UTC(),
		"notifications": gin.H{
			"telegram": gin.H{
				"enabled":          h.status.ChatEnabled,
				"botConfigured":    h.status.ChatConfigured,
				"chatIdConfigured": h.status.ChatIDConfigured,
			},
			"webPush": gin.H{
				"enabled":     h.status.VAPIDPublicKey != "",
				"subscribers": h.subs.Count(),
			},
			"webSocket": gin.H{
				"enabled": true,
				"clients": h.streams.Count(),
			},
			"mobilePush": gin.H{
				"tokens": h.tokens.Count(),
			},
		},
	})
}

// GetPrices refreshes the cache and pushes the result to stream clients, so
// polling this endpoint doubles as a broadcast trigger.
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	snap := h.prices.Refresh(ctx)

	h.streams.Broadcast(ws.PriceUpdateMessage{
		Type:      ws.TypePriceUpdate,
		Timestamp: snap.UpdatedAt,
		Prices:    snap.Prices,
		Source:    snap.Source,
	})

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"prices":    snap.Prices,
		"source":    snap.Source,
		"timestamp": snap.UpdatedAt,
	})
}

func (h *Handler) GetSignals(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	recent := h.signals.Recent(50)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     h.signals.Count(),
		"signals":   recent,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) NotificationsStatus(c *gin.Context) {
	publicKeyPreview := ""
	if len(h.status.VAPIDPublicKey) > 20 {
		publicKeyPreview = h.status.VAPIDPublicKey[:20] + "..."
	}

	c.JSON(http.StatusOK, gin.H{
		"telegram": gin.H{
			"enabled":          h.status.ChatEnabled,
			"botConfigured":    h.status.ChatConfigured,
			"chatIdConfigured": h.status.ChatIDConfigured,
		},
		"webPush": gin.H{
			"enabled":     h.status.VAPIDPublicKey != "",
			"subscribers": h.subs.Count(),
			"publicKey":   publicKeyPreview,
		},
		"webSocket": gin.H{
			"enabled": true,
			"clients": h.streams.Count(),
		},
		"mobilePush": gin.H{
			"tokens": h.tokens.Count(),
		},
		"dashboard": h.status.DashboardURL,
	})
}
