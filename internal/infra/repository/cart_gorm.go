package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 商品をJOINしたカート明細。無ければ空スライス
func (r *CartGormRepository) ListLinesByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	lines := []model.CartLine{}

	err := r.db.WithContext(ctx).
		Table("cart_items AS c").
		Select("c.product_id, p.name, p.image, p.price, c.quantity").
		Joins("JOIN products p ON p.id = c.product_id").
		Where("c.user_id = ?", userID).
		Order("c.created_at asc, c.product_id asc").
		Scan(&lines).Error
	if err != nil {
		return []model.CartLine{}, translateError(err)
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines, nil
}

// ユーザーのカート明細を全削除
func (r *CartGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
	return translateError(err)
}

// 明細を1行追加
func (r *CartGormRepository) Add(ctx context.Context, item model.CartItem) error {
	return translateError(r.db.WithContext(ctx).Create(&item).Error)
}
