package bot

import (
	"fmt"
	"strings"
	"time"

	"signal-relay/internal/domain"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

type priceQuerier interface {
	GetPrice(symbol string) float64
}

// StartTelegramBot connects the bot and registers the interactive commands.
// A missing token is not fatal: the server runs without the chat channel and
// every chat alert reports a disabled result.
func StartTelegramBot(token string, prices priceQuerier) *tele.Bot {
	if token == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, skipping chat bot startup")
		return nil
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Error().Err(err).Msg("chat bot startup failed")
		return nil
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTCUSDT\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !strings.HasSuffix(symbol, "USDT") {
			symbol += "USDT"
		}
		if !domain.IsSupportedSymbol(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		return c.Send(fmt.Sprintf("%s\nPrice: $%.2f", symbol, prices.GetPrice(symbol)))
	})

	log.Info().Msg("chat bot started")
	go b.Start()
	return b
}
