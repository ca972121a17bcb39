package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
)

type WebhookUsecase struct {
	orders  *OrderUsecase
	gateway PaymentGateway
	events  WebhookEventStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// eventsはnilでもよい（その場合は注文ステータスだけで重複を吸収する）
func NewWebhookUsecase(
	orders *OrderUsecase,
	gateway PaymentGateway,
	events WebhookEventStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *WebhookUsecase {
	return &WebhookUsecase{
		orders:  orders,
		gateway: gateway,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

type transitionDecision int

const (
	decisionApply transitionDecision = iota
	// 対象外のイベント、またはすでにそのステータス
	decisionNoop
	// 前に進まない遷移
	decisionReject
)

// イベントの種類 → 目標ステータス
func targetStatus(kind EventKind) (model.OrderStatus, bool) {
	switch kind {
	case EventCheckoutSessionCompleted:
		return model.OrderStatusProcessing, true
	case EventCheckoutSessionExpired, EventPaymentIntentCanceled:
		return model.OrderStatusCancelled, true
	case EventPaymentIntentSucceeded:
		return model.OrderStatusCompleted, true
	default:
		return "", false
	}
}

// decideTransition は現在のステータスとイベントから次のステータスを決める（副作用なし）。
func decideTransition(current model.OrderStatus, kind EventKind) (model.OrderStatus, transitionDecision) {
	next, ok := targetStatus(kind)
	if !ok || next == current {
		return "", decisionNoop
	}
	//順不同で届いた前のステップ（completed後のsession.completedなど）
	if current.HasPassed(next) {
		return "", decisionNoop
	}
	if !current.CanTransitionTo(next) {
		return next, decisionReject
	}
	return next, decisionApply
}

// HandleWebhook は署名を検証し、イベントに応じて注文ステータスを進める。
// 返すエラーは署名不正（400）と保存失敗（500、再送してもらう）だけ。
// それ以外は受け取ったことにして200を返す。
func (u *WebhookUsecase) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	ev, err := u.gateway.ParseWebhookEvent(payload, signatureHeader)
	if err != nil {
		u.logger.WarnContext(ctx, "webhook signature verification failed", "err", err)
		u.metrics.WebhookHandled("unknown", "signature_invalid")
		return NewHTTPError(ErrSignatureInvalid, "invalid signature")
	}
	eventType := string(ev.Kind)

	if u.events != nil {
		seen, err := u.events.Seen(ctx, ev.ID)
		if err != nil {
			//記録が読めなくても注文ステータスで重複は吸収できる
			u.logger.WarnContext(ctx, "webhook event store unavailable", "event_id", ev.ID, "err", err)
		}
		if seen {
			u.metrics.WebhookHandled(eventType, "duplicate")
			return nil
		}
	}

	outcome, err := u.apply(ctx, ev)
	if err != nil {
		u.metrics.WebhookHandled(eventType, "error")
		return err
	}

	u.markProcessed(ctx, ev.ID)
	u.metrics.WebhookHandled(eventType, outcome)
	return nil
}

func (u *WebhookUsecase) apply(ctx context.Context, ev PaymentEvent) (string, error) {
	if _, ok := targetStatus(ev.Kind); !ok {
		u.logger.DebugContext(ctx, "webhook event ignored", "event_id", ev.ID, "type", ev.Kind)
		return "ignored", nil
	}

	orderID, err := strconv.ParseInt(ev.OrderID, 10, 64)
	if err != nil || orderID <= 0 {
		u.logger.WarnContext(ctx, "webhook event without valid order id", "event_id", ev.ID, "type", ev.Kind, "order_id", ev.OrderID)
		return "invalid_order", nil
	}

	change, err := u.orders.changeStatus(ctx, orderID, model.StatusSourceWebhook, ev.ID,
		func(current model.OrderStatus) (model.OrderStatus, error) {
			next, d := decideTransition(current, ev.Kind)
			switch d {
			case decisionNoop:
				return "", nil
			case decisionReject:
				return "", NewHTTPError(ErrConflict, "illegal transition from "+string(current)+" to "+string(next))
			}
			return next, nil
		})
	switch {
	case errors.Is(err, ErrNotFound):
		u.logger.WarnContext(ctx, "webhook for unknown order", "event_id", ev.ID, "order_id", orderID)
		return "unknown_order", nil
	case errors.Is(err, ErrConflict):
		u.logger.WarnContext(ctx, "webhook transition rejected", "event_id", ev.ID, "order_id", orderID, "type", ev.Kind, "err", err)
		return "rejected", nil
	case err != nil:
		return "", err
	}

	if !change.Changed {
		return "noop", nil
	}
	return "applied", nil
}

func (u *WebhookUsecase) markProcessed(ctx context.Context, eventID string) {
	if u.events == nil || eventID == "" {
		return
	}
	if err := u.events.MarkProcessed(ctx, eventID); err != nil {
		u.logger.WarnContext(ctx, "mark webhook event processed failed", "event_id", eventID, "err", err)
	}
}
