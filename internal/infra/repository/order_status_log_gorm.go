package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type orderStatusLogGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusLogGormRepository(db *gorm.DB) *orderStatusLogGormRepository {
	return &orderStatusLogGormRepository{db: db}
}

func (r *orderStatusLogGormRepository) Create(ctx context.Context, log model.OrderStatusLog) error {
	return translateError(r.db.WithContext(ctx).Create(&log).Error)
}

//古い順
func (r *orderStatusLogGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusLog, error) {
	var logs []model.OrderStatusLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&logs).Error
	if err != nil {
		return nil, translateError(err)
	}
	return logs, nil
}
