package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	logger *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, logger *slog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, logger: logger}
}

// CreateOrderの結果
type OrderCreated struct {
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

type OrderOutput struct {
	ID                int64                   `json:"id"`
	UserID            int64                   `json:"user_id"`
	Status            string                  `json:"status"`
	Total             decimal.Decimal         `json:"total"`
	CheckoutSessionID *string                 `json:"checkout_session_id"`
	CreatedAt         time.Time               `json:"created_at"`
	Items             []model.OrderItemDetail `json:"items"`
}

type ListOrdersOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// ステータス変更の結果
type StatusChange struct {
	From    model.OrderStatus
	To      model.OrderStatus
	Changed bool
}

// CreateOrder はカート明細から注文を作る。
// 合計は明細の価格×数量の和。注文と明細は1トランザクションで保存する。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, lines []model.CartLine) (OrderCreated, error) {
	if userID <= 0 {
		return OrderCreated{}, NewHTTPError(ErrUnauthorized, "unauthorized")
	}
	if len(lines) == 0 {
		return OrderCreated{}, NewHTTPError(ErrInvalidInput, "cart empty")
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 || l.Price.IsNegative() {
			return OrderCreated{}, NewHTTPError(ErrInvalidInput, "invalid cart line")
		}
		//購入時の価格を固定
		items = append(items, model.OrderItem{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: l.Price,
		})
	}
	total := model.SumLines(lines)

	var orderID int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, model.Order{
			UserID: userID,
			Total:  total,
			Status: model.OrderStatusCreated,
		})
		if errors.Is(err, repo.ErrInvalidReference) {
			return NewHTTPError(ErrInvalidInput, "invalid user")
		}
		if err != nil {
			return storageError(ctx, u.logger, "create order failed", err, "user_id", userID)
		}

		if err := r.OrderItems().CreateBulk(ctx, id, items); err != nil {
			if errors.Is(err, repo.ErrInvalidReference) {
				return NewHTTPError(ErrInvalidInput, "unknown product")
			}
			return storageError(ctx, u.logger, "create order items failed", err, "order_id", id)
		}

		orderID = id
		return nil
	})
	if err != nil {
		return OrderCreated{}, err
	}

	u.logger.InfoContext(ctx, "order created", "order_id", orderID, "user_id", userID, "total", total.StringFixed(2))
	return OrderCreated{OrderID: orderID, Total: total}, nil
}

// 注文明細（商品名・画像付き）。価格は購入時のもの
func (u *OrderUsecase) GetOrderDetails(ctx context.Context, orderID int64) ([]model.OrderItemDetail, error) {
	if orderID <= 0 {
		return []model.OrderItemDetail{}, NewHTTPError(ErrInvalidInput, "invalid id")
	}

	var details []model.OrderItemDetail
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(ErrNotFound, "not found")
			}
			return storageError(ctx, u.logger, "find order failed", err, "order_id", orderID)
		}

		d, err := r.OrderItems().ListDetailsByOrderID(ctx, orderID)
		if err != nil {
			return storageError(ctx, u.logger, "list order items failed", err, "order_id", orderID)
		}
		details = d
		return nil
	})
	if err != nil {
		return []model.OrderItemDetail{}, err
	}
	return details, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (ListOrdersOutput, error) {
	if userID <= 0 {
		return ListOrdersOutput{}, NewHTTPError(ErrUnauthorized, "unauthorized")
	}
	if page < 1 {
		return ListOrdersOutput{}, NewHTTPError(ErrInvalidInput, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return ListOrdersOutput{}, NewHTTPError(ErrInvalidInput, "invalid limit")
	}

	out := ListOrdersOutput{Items: []OrderOutput{}, Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return storageError(ctx, u.logger, "list orders failed", err, "user_id", userID)
		}

		for _, o := range orders {
			items, err := r.OrderItems().ListDetailsByOrderID(ctx, o.ID)
			if err != nil {
				return storageError(ctx, u.logger, "list order items failed", err, "order_id", o.ID)
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		out.Total = total
		return nil
	})
	if err != nil {
		return ListOrdersOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(ErrUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(ErrInvalidInput, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(ErrNotFound, "not found")
		}
		if err != nil {
			return storageError(ctx, u.logger, "find order failed", err, "order_id", orderID)
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(ErrNotFound, "not found")
		}

		items, err := r.OrderItems().ListDetailsByOrderID(ctx, orderID)
		if err != nil {
			return storageError(ctx, u.logger, "list order items failed", err, "order_id", orderID)
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateOrderStatus はステータスを変更する。
// 同じステータスなら何もしない。前に進まない変更はErrConflict。
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, orderID int64, status string, source model.StatusChangeSource, reference string) (StatusChange, error) {
	if orderID <= 0 {
		return StatusChange{}, NewHTTPError(ErrInvalidInput, "invalid id")
	}
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return StatusChange{}, NewHTTPError(ErrInvalidInput, "invalid status")
	}

	change, err := u.changeStatus(ctx, orderID, source, reference, func(model.OrderStatus) (model.OrderStatus, error) {
		return next, nil
	})
	if errors.Is(err, ErrConflict) {
		u.logger.WarnContext(ctx, "order status change rejected",
			"order_id", orderID, "to", next, "source", source, "err", err)
	}
	return change, err
}

// UpdateOrderSessionID は決済側のID（セッション or PaymentIntent）を保存する。後勝ち。
func (u *OrderUsecase) UpdateOrderSessionID(ctx context.Context, orderID int64, sessionID string) error {
	if orderID <= 0 || sessionID == "" {
		return NewHTTPError(ErrInvalidInput, "invalid session")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Orders().UpdateCheckoutSessionID(ctx, orderID, sessionID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(ErrNotFound, "not found")
		}
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(ErrConflict, "session already linked to another order")
		}
		if err != nil {
			return storageError(ctx, u.logger, "update checkout session failed", err, "order_id", orderID)
		}
		return nil
	})
}

// changeStatus は注文行をロックし、decideで決めたステータスへ変更して履歴を残す。
// decideが""か現在と同じ値を返したら何もしない。
func (u *OrderUsecase) changeStatus(
	ctx context.Context,
	orderID int64,
	source model.StatusChangeSource,
	reference string,
	decide func(current model.OrderStatus) (model.OrderStatus, error),
) (StatusChange, error) {
	var out StatusChange

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(ErrNotFound, "not found")
		}
		if err != nil {
			return storageError(ctx, u.logger, "lock order failed", err, "order_id", orderID)
		}
		out = StatusChange{From: o.Status, To: o.Status}

		next, err := decide(o.Status)
		if err != nil {
			return err
		}
		if next == "" || next == o.Status {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(ErrConflict, fmt.Sprintf("cannot change order status from %s to %s", o.Status, next))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			return storageError(ctx, u.logger, "update order status failed", err, "order_id", orderID)
		}
		if err := r.OrderStatusLogs().Create(ctx, model.OrderStatusLog{
			OrderID:    orderID,
			FromStatus: o.Status,
			ToStatus:   next,
			Source:     source,
			Reference:  reference,
		}); err != nil {
			return storageError(ctx, u.logger, "create order status log failed", err, "order_id", orderID)
		}

		out.To = next
		out.Changed = true
		return nil
	})
	if err != nil {
		return StatusChange{}, err
	}

	if out.Changed {
		u.logger.InfoContext(ctx, "order status changed",
			"order_id", orderID, "from", out.From, "to", out.To, "source", source, "reference", reference)
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItemDetail) OrderOutput {
	if items == nil {
		items = []model.OrderItemDetail{}
	}
	return OrderOutput{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            string(o.Status),
		Total:             o.Total,
		CheckoutSessionID: o.CheckoutSessionID,
		CreatedAt:         o.CreatedAt,
		Items:             items,
	}
}
