package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	orders *OrderUsecase
}

func NewAdminOrderUsecase(orders *OrderUsecase) *AdminOrderUsecase {
	return &AdminOrderUsecase{orders: orders}
}

type AdminUpdateOrderStatusInput struct {
	Status string `json:"status"`
}

// 管理者によるステータス更新。履歴のreferenceに操作した管理者IDを残す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (StatusChange, error) {
	if actorAdminUserID <= 0 {
		return StatusChange{}, NewHTTPError(ErrUnauthorized, "unauthorized")
	}

	ref := "admin:" + strconv.FormatInt(actorAdminUserID, 10)
	return u.orders.UpdateOrderStatus(ctx, orderID, strings.TrimSpace(in.Status), model.StatusSourceAdmin, ref)
}

// 管理者向けの注文詳細。ステータス変更履歴付き
type AdminOrderOutput struct {
	OrderOutput
	History []model.OrderStatusLog `json:"history"`
}

// GetOrder は所有者に関係なく注文を返す。履歴は古い順
func (u *AdminOrderUsecase) GetOrder(ctx context.Context, orderID int64) (AdminOrderOutput, error) {
	if orderID <= 0 {
		return AdminOrderOutput{}, NewHTTPError(ErrInvalidInput, "invalid id")
	}

	var out AdminOrderOutput
	logger := u.orders.logger

	err := u.orders.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(ErrNotFound, "not found")
		}
		if err != nil {
			return storageError(ctx, logger, "find order failed", err, "order_id", orderID)
		}

		items, err := r.OrderItems().ListDetailsByOrderID(ctx, orderID)
		if err != nil {
			return storageError(ctx, logger, "list order items failed", err, "order_id", orderID)
		}
		history, err := r.OrderStatusLogs().ListByOrderID(ctx, orderID)
		if err != nil {
			return storageError(ctx, logger, "list order status logs failed", err, "order_id", orderID)
		}
		if history == nil {
			history = []model.OrderStatusLog{}
		}

		out = AdminOrderOutput{OrderOutput: toOrderOutput(o, items), History: history}
		return nil
	})
	if err != nil {
		return AdminOrderOutput{}, err
	}
	return out, nil
}
