package model

import "time"

// ステータスを変えたのは誰か
type StatusChangeSource string

const (
	StatusSourceWebhook StatusChangeSource = "webhook"
	StatusSourceAdmin   StatusChangeSource = "admin"
)

// 注文ステータスの変更履歴。
// 実際に変わったときだけ1行残す（同じステータスの再設定では残さない）。
type OrderStatusLog struct {
	ID         int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64              `gorm:"not null;index" json:"order_id"`
	FromStatus OrderStatus        `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   OrderStatus        `gorm:"type:varchar(20);not null" json:"to_status"`
	Source     StatusChangeSource `gorm:"type:varchar(20);not null" json:"source"`
	//webhookのイベントIDなど
	Reference string    `gorm:"type:varchar(255)" json:"reference"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
