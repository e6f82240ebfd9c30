package service

import (
	"context"

	"signal-relay/internal/domain"
	"signal-relay/internal/store"
	"signal-relay/internal/ws"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type TradeGateway interface {
	Execute(ctx context.Context, user domain.User, sig domain.Signal) domain.TradeResult
}

type eligibleUserLister interface {
	AlgoUsers() []domain.User
}

type userNotifier interface {
	NotifyUser(userID string, v any) bool
}

// OrderArchive is an optional write-behind mirror for executed orders. The
// in-memory store stays authoritative.
type OrderArchive interface {
	SaveOrder(ctx context.Context, order domain.TradeOrder) error
}

// AutoTradeService fans a signal out to every eligible trader. One user's
// brokerage failure never blocks another's execution.
type AutoTradeService struct {
	tracer  trace.Tracer
	users   eligibleUserLister
	gateway TradeGateway
	orders  *store.OrderStore
	streams userNotifier
	archive OrderArchive
}

func NewAutoTradeService(tracer trace.Tracer, users eligibleUserLister, gateway TradeGateway, orders *store.OrderStore, streams userNotifier, archive OrderArchive) *AutoTradeService {
	return &AutoTradeService{
		tracer:  tracer,
		users:   users,
		gateway: gateway,
		orders:  orders,
		streams: streams,
		archive: archive,
	}
}

// ExecuteForSignal runs the fan-out and accounts for every eligible user:
// Total always equals the eligible count, Executed+Failed included.
func (s *AutoTradeService) ExecuteForSignal(ctx context.Context, sig domain.Signal) *domain.AutoTradeSummary {
	ctx, span := s.tracer.Start(ctx, "auto-trade.execute-for-signal")
	defer span.End()

	eligible := s.users.AlgoUsers()
	summary := &domain.AutoTradeSummary{
		Total:   len(eligible),
		Details: make([]domain.TradeDetail, 0, len(eligible)),
	}
	if len(eligible) == 0 {
		return summary
	}

	log.Info().Int("eligible", len(eligible)).Str("symbol", sig.Symbol).Msg("executing auto-trades")

	for _, user := range eligible {
		result := s.gateway.Execute(ctx, user, sig)

		if result.Success && result.Order != nil {
			summary.Executed++
			summary.Details = append(summary.Details, domain.TradeDetail{
				UserID:  user.ID,
				Email:   user.Email,
				Status:  string(domain.OrderExecuted),
				OrderID: result.Order.OrderID,
			})
			s.orders.Append(*result.Order)
			s.archiveOrder(ctx, *result.Order)

			if s.streams != nil {
				s.streams.NotifyUser(user.ID, ws.TradeExecutedMessage{
					Type:   ws.TypeTradeExecuted,
					Signal: sig,
					Trade:  result,
				})
			}
			continue
		}

		summary.Failed++
		summary.Details = append(summary.Details, domain.TradeDetail{
			UserID: user.ID,
			Email:  user.Email,
			Status: string(domain.OrderFailed),
			Error:  result.Message,
		})
		if s.streams != nil {
			s.streams.NotifyUser(user.ID, ws.TradeFailedMessage{
				Type:   ws.TypeTradeFailed,
				Signal: sig,
				Error:  result.Message,
			})
		}
	}

	log.Info().Int("executed", summary.Executed).Int("total", summary.Total).Msg("auto-trades completed")
	return summary
}

func (s *AutoTradeService) archiveOrder(ctx context.Context, order domain.TradeOrder) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveOrder(ctx, order); err != nil {
		log.Warn().Err(err).Str("orderId", order.OrderID).Msg("order archive write failed")
	}
}
