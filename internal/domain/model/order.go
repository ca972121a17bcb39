package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 文字列から注文ステータスへ。4種類以外はfalse
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusCreated, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), true
	default:
		return "", false
	}
}

// completed / cancelled は終端
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// 前にしか進まない。
//
//	created    -> processing, completed, cancelled
//	processing -> completed, cancelled
//
// 同じステータスへの遷移はここでは扱わない（呼び出し側でno-op）。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return next == OrderStatusProcessing || next == OrderStatusCompleted || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	default:
		return false
	}
}

// HasPassed は target が同じ前進経路上ですでに通過済みのステップか。
// completed は processing を通過済み（processing を飛ばした場合も含む）。
// cancelled は何も通過していない扱い。
func (s OrderStatus) HasPassed(target OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return target == OrderStatusCreated
	case OrderStatusCompleted:
		return target == OrderStatusCreated || target == OrderStatusProcessing
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

// 注文。Totalは作成時に確定して以後変えない。
type Order struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"not null;index" json:"user_id"`
	Total             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	CheckoutSessionID *string         `gorm:"type:varchar(255);uniqueIndex" json:"checkout_session_id"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
