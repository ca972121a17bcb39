package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。購入時の価格を保存し、あとから商品価格で計算し直さない。
type OrderItem struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         int64           `gorm:"not null;index" json:"order_id"`
	ProductID       int64           `gorm:"not null;index" json:"product_id"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_at_purchase"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 商品の表示項目をJOINした注文明細
type OrderItemDetail struct {
	ProductID       int64           `json:"product_id"`
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Quantity        int64           `json:"quantity"`
}
