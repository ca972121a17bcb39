package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	// 商品情報をJOINして返す。無ければ空
	ListLinesByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	DeleteByUserID(ctx context.Context, userID int64) error
	Add(ctx context.Context, item model.CartItem) error
}
