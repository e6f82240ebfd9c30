package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"signal-relay/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

type botAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Raw(method string, payload interface{}) ([]byte, error)
}

// ChatAlerter posts formatted signal alerts to a single configured chat. The
// bot connection is verified before each alert so a revoked token degrades to
// a per-signal failure instead of silence.
type ChatAlerter struct {
	tracer trace.Tracer
	api    botAPI

	chatID       int64
	dashboardURL string
	enabled      bool
}

func NewChatAlerter(tracer trace.Tracer, api botAPI, chatID int64, dashboardURL string, enabled bool) *ChatAlerter {
	return &ChatAlerter{
		tracer:       tracer,
		api:          api,
		chatID:       chatID,
		dashboardURL: dashboardURL,
		enabled:      enabled,
	}
}

// SendAlert never returns an error: the per-channel outcome is a value the
// dispatcher aggregates whatever happens here.
func (a *ChatAlerter) SendAlert(ctx context.Context, sig domain.Signal) domain.ChatBotResult {
	_, span := a.tracer.Start(ctx, "chat-alerter.send-alert")
	defer span.End()

	if !a.enabled || a.api == nil {
		log.Warn().Msg("chat alerts are disabled")
		return domain.ChatBotResult{Success: false, Error: "chat alerts disabled"}
	}

	if _, err := a.api.Raw("getMe", nil); err != nil {
		log.Error().Err(err).Msg("chat bot connection check failed")
		return domain.ChatBotResult{Success: false, Error: "bot connection failed"}
	}

	msg, err := a.api.Send(
		&tele.Chat{ID: a.chatID},
		formatAlertMessage(sig, a.dashboardURL),
		&tele.SendOptions{
			ParseMode:             tele.ModeHTML,
			DisableWebPagePreview: true,
			ReplyMarkup:           alertKeyboard(sig.Symbol, a.dashboardURL),
		},
	)
	if err != nil {
		result := domain.ChatBotResult{Success: false, Error: err.Error()}
		var teleErr *tele.Error
		if errors.As(err, &teleErr) {
			result.Code = teleErr.Code
			result.Description = teleErr.Description
		}
		log.Error().Err(err).Msg("chat alert send failed")
		return result
	}

	log.Info().Str("symbol", sig.Symbol).Int("messageId", msg.ID).Msg("chat alert sent")
	return domain.ChatBotResult{Success: true, MessageID: msg.ID}
}

func alertKeyboard(symbol, dashboardURL string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	chart := markup.URL("📊 Open TradingView Chart", "https://www.tradingview.com/chart/?symbol="+symbol)
	trade := markup.URL("🚀 Open Binance Trade", "https://www.binance.com/en/trade/"+symbol)
	dash := markup.URL("📱 Open Dashboard", dashboardURL)
	markup.Inline(markup.Row(chart), markup.Row(trade), markup.Row(dash))
	return markup
}

func formatAlertMessage(sig domain.Signal, dashboardURL string) string {
	pure := sig.Classification == domain.ClassificationPure

	label := "LST"
	emoji := "📊"
	if pure {
		label = "PURE"
		emoji = "🎯"
	}

	marketPrice := "N/A"
	if sig.PriceAtAlert > 0 {
		marketPrice = fmt.Sprintf("$%.2f", sig.PriceAtAlert)
	}

	profit, loss := "N/A", "N/A"
	if sig.Entry > 0 && sig.TP1 > 0 && sig.StopLoss > 0 {
		pAbs, pPct := domain.PotentialProfit(sig.Direction, sig.Entry, sig.TP1)
		lAbs, lPct := domain.PotentialLoss(sig.Direction, sig.Entry, sig.StopLoss)
		profit = fmt.Sprintf("$%.2f (%.2f%%)", pAbs, pPct)
		loss = fmt.Sprintf("$%.2f (%.2f%%)", lAbs, lPct)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s %s SIGNAL</b>\n\n", emoji, label, sig.Symbol, sig.Direction.PositionLabel())
	fmt.Fprintf(&b, "📊 <b>Current Market Price:</b> %s\n", marketPrice)
	fmt.Fprintf(&b, "📈 <b>Entry Price:</b> $%v\n", sig.Entry)
	fmt.Fprintf(&b, "⛔ <b>Stop Loss:</b> $%v\n", sig.StopLoss)
	fmt.Fprintf(&b, "🎯 <b>Take Profit:</b> $%v\n\n", sig.TP1)
	fmt.Fprintf(&b, "💰 <b>Potential Profit:</b> %s\n", profit)
	fmt.Fprintf(&b, "⚠️ <b>Potential Loss:</b> %s\n", loss)

	if pure {
		b.WriteString("\n✅ <b>Conditions Met:</b>\n")
		if sig.Conditions.LST {
			b.WriteString("• LST ✓\n")
		}
		if sig.Conditions.MTF {
			b.WriteString("• MTF ✓\n")
		}
		if sig.Conditions.Volume {
			b.WriteString("• Volume ✓\n")
		}
		if sig.Conditions.AI {
			b.WriteString("• AI Score ✓\n")
		}
		if sig.Conditions.Level {
			b.WriteString("• Level Match ✓\n")
		}
	}

	fmt.Fprintf(&b, "\n📊 <b>Confidence:</b> %d%%\n", sig.Confidence)
	fmt.Fprintf(&b, "⚡ <b>Risk:</b> %v%%\n", sig.RiskPercent)
	fmt.Fprintf(&b, "📡 <b>Source:</b> %s\n\n", sig.Source)
	fmt.Fprintf(&b, "⏰ <b>Time:</b> %s\n", sig.CreatedAt.UTC().Format("03:04:05 PM"))
	fmt.Fprintf(&b, "🔗 <b>Dashboard:</b> %s\n\n", dashboardURL)
	fmt.Fprintf(&b, "#%s #%s #%s #TradingView",
		strings.Replace(sig.Symbol, "USDT", "", 1), label, sig.Direction.PositionLabel())

	return b.String()
}
