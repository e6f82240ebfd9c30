package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"signal-relay/internal/domain"
	"signal-relay/internal/store"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// sendFunc is swapped out in tests; the default delegates to webpush-go.
type sendFunc func(ctx context.Context, message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// WebPusher fans a signal out to every browser subscription. Dead endpoints
// are pruned as the provider reports them gone.
type WebPusher struct {
	tracer trace.Tracer
	subs   *store.SubscriptionStore

	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string

	send sendFunc
}

func NewWebPusher(tracer trace.Tracer, subs *store.SubscriptionStore, publicKey, privateKey, subscriber string) *WebPusher {
	return &WebPusher{
		tracer:          tracer,
		subs:            subs,
		vapidPublicKey:  publicKey,
		vapidPrivateKey: privateKey,
		subscriber:      subscriber,
		send:            webpush.SendNotificationWithContext,
	}
}

func (p *WebPusher) PublicKey() string { return p.vapidPublicKey }

type notification struct {
	Title              string        `json:"title"`
	Body               string        `json:"body"`
	Icon               string        `json:"icon"`
	Data               domain.Signal `json:"data"`
	Tag                string        `json:"tag"`
	RequireInteraction bool          `json:"requireInteraction"`
}

// NotifyAll delivers the signal to a snapshot of the current subscriptions
// and returns the delivery count. Subscriptions added mid-send catch the next
// signal.
func (p *WebPusher) NotifyAll(ctx context.Context, sig domain.Signal) int {
	ctx, span := p.tracer.Start(ctx, "web-pusher.notify-all")
	defer span.End()

	targets := p.subs.Snapshot()
	if len(targets) == 0 {
		return 0
	}

	payload, err := json.Marshal(buildNotification(sig))
	if err != nil {
		log.Error().Err(err).Msg("push payload marshal failed")
		return 0
	}

	opts := &webpush.Options{
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.vapidPublicKey,
		VAPIDPrivateKey: p.vapidPrivateKey,
		TTL:             60,
	}

	delivered := 0
	for _, target := range targets {
		sub := &webpush.Subscription{
			Endpoint: target.Endpoint,
			Keys: webpush.Keys{
				Auth:   target.Keys.Auth,
				P256dh: target.Keys.P256dh,
			},
		}
		resp, err := p.send(ctx, payload, sub, opts)
		if err != nil {
			log.Error().Str("endpoint", target.Endpoint).Err(err).Msg("web push delivery failed")
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			p.subs.Remove(target.Endpoint)
			log.Info().Str("endpoint", target.Endpoint).Msg("pruned dead push subscription")
		case resp.StatusCode >= 400:
			log.Error().Str("endpoint", target.Endpoint).Int("status", resp.StatusCode).Msg("web push rejected")
		default:
			delivered++
		}
	}
	return delivered
}

func buildNotification(sig domain.Signal) notification {
	label := "📊 LST"
	if sig.Classification == domain.ClassificationPure {
		label = "🎯 PURE"
	}
	icon := "/sell-icon.png"
	if sig.Direction == domain.DirectionBuy {
		icon = "/buy-icon.png"
	}
	current := "N/A"
	if sig.PriceAtAlert > 0 {
		current = fmt.Sprintf("$%.2f", sig.PriceAtAlert)
	}
	return notification{
		Title:              fmt.Sprintf("%s %s - %s", sig.Direction, sig.Symbol, label),
		Body:               fmt.Sprintf("Entry: $%v | Current: %s", sig.Entry, current),
		Icon:               icon,
		Data:               sig,
		Tag:                sig.ID,
		RequireInteraction: true,
	}
}
