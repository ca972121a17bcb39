package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return translateError(r.db.WithContext(ctx).Create(&items).Error)
}

// 価格はprice_at_purchase（商品の現在価格は使わない）
func (r *OrderItemGormRepository) ListDetailsByOrderID(ctx context.Context, orderID int64) ([]model.OrderItemDetail, error) {
	details := []model.OrderItemDetail{}

	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.product_id, p.name, p.image, oi.price_at_purchase, oi.quantity").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id asc").
		Scan(&details).Error
	if err != nil {
		return []model.OrderItemDetail{}, translateError(err)
	}
	if details == nil {
		details = []model.OrderItemDetail{}
	}
	return details, nil
}
