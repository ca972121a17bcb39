package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 注文ステータス変更履歴の保存・一覧
type OrderStatusLogRepository interface {
	Create(ctx context.Context, log model.OrderStatusLog) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusLog, error)
}
