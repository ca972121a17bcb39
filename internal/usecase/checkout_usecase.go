package usecase

import (
	"context"
	"log/slog"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"

	"github.com/shopspring/decimal"
)

// CheckoutUsecase はカート→注文→決済作成をまとめる。
// webhookの到着は待たない。
type CheckoutUsecase struct {
	carts    *CartUsecase
	orders   *OrderUsecase
	gateway  PaymentGateway
	currency string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewCheckoutUsecase(
	carts *CartUsecase,
	orders *OrderUsecase,
	gateway PaymentGateway,
	currency string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		carts:    carts,
		orders:   orders,
		gateway:  gateway,
		currency: currency,
		metrics:  m,
		logger:   logger,
	}
}

// 種類に応じてSessionかPaymentIntentのどちらかが入る
type CheckoutOutput struct {
	OrderID       int64            `json:"orderId"`
	Total         decimal.Decimal  `json:"total"`
	Session       *CheckoutSession `json:"session,omitempty"`
	PaymentIntent *PaymentIntent   `json:"paymentIntent,omitempty"`
}

// Checkout はカートから注文を作り、決済代行側のオブジェクトを作って紐付ける。
// 決済代行の失敗はErrGateway（注文はcreatedのまま残る）。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, checkoutType string) (CheckoutOutput, error) {
	typ := CheckoutType(checkoutType)
	label := string(typ)
	if typ != CheckoutTypeSession && typ != CheckoutTypePaymentIntent {
		label = "unsupported"
	}

	out, err := u.checkout(ctx, userID, typ)
	if err != nil {
		u.metrics.CheckoutDone(label, "error")
		return CheckoutOutput{}, err
	}
	u.metrics.CheckoutDone(label, "ok")
	return out, nil
}

func (u *CheckoutUsecase) checkout(ctx context.Context, userID int64, typ CheckoutType) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(ErrUnauthorized, "unauthorized")
	}
	//書き込みの前に種類をチェック
	if typ != CheckoutTypeSession && typ != CheckoutTypePaymentIntent {
		return CheckoutOutput{}, NewHTTPError(ErrUnsupportedCheckoutType, "unsupported checkout type")
	}

	lines, err := u.carts.GetCart(ctx, userID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if len(lines) == 0 {
		return CheckoutOutput{}, NewHTTPError(ErrInvalidInput, "cart empty")
	}

	created, err := u.orders.CreateOrder(ctx, userID, lines)
	if err != nil {
		return CheckoutOutput{}, err
	}
	out := CheckoutOutput{OrderID: created.OrderID, Total: created.Total}

	switch typ {
	case CheckoutTypeSession:
		items := make([]LineItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, LineItem{
				Name:       l.Name,
				Image:      l.Image,
				UnitAmount: model.ToMinorUnits(l.Price),
				Quantity:   l.Quantity,
			})
		}

		session, err := u.gateway.CreateCheckoutSession(ctx, userID, created.OrderID, items)
		if err != nil {
			u.logger.ErrorContext(ctx, "create checkout session failed", "order_id", created.OrderID, "err", err)
			return CheckoutOutput{}, NewHTTPError(ErrGateway, "payment gateway error")
		}
		if err := u.orders.UpdateOrderSessionID(ctx, created.OrderID, session.ID); err != nil {
			u.logger.ErrorContext(ctx, "link checkout session failed", "order_id", created.OrderID, "session_id", session.ID, "err", err)
			return CheckoutOutput{}, err
		}
		out.Session = &session

	case CheckoutTypePaymentIntent:
		amount := model.ToMinorUnits(created.Total)
		intent, err := u.gateway.CreatePaymentIntent(ctx, userID, created.OrderID, amount, u.currency)
		if err != nil {
			u.logger.ErrorContext(ctx, "create payment intent failed", "order_id", created.OrderID, "err", err)
			return CheckoutOutput{}, NewHTTPError(ErrGateway, "payment gateway error")
		}
		if err := u.orders.UpdateOrderSessionID(ctx, created.OrderID, intent.ID); err != nil {
			u.logger.ErrorContext(ctx, "link payment intent failed", "order_id", created.OrderID, "payment_intent_id", intent.ID, "err", err)
			return CheckoutOutput{}, err
		}
		out.PaymentIntent = &intent
	}

	u.logger.InfoContext(ctx, "checkout started", "order_id", created.OrderID, "type", string(typ))
	return out, nil
}
