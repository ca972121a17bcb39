package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 商品は読むだけ
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}
