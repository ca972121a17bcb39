package usecase

import "context"

type CheckoutType string

const (
	CheckoutTypeSession       CheckoutType = "CheckoutSession"
	CheckoutTypePaymentIntent CheckoutType = "PaymentIntent"
)

// 決済代行に渡す明細。金額は最小通貨単位
type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// 決済代行から届くイベントの種類（このアプリで使うものだけ）
type EventKind string

const (
	EventCheckoutSessionCompleted EventKind = "checkout.session.completed"
	EventCheckoutSessionExpired   EventKind = "checkout.session.expired"
	EventPaymentIntentSucceeded   EventKind = "payment_intent.succeeded"
	EventPaymentIntentCanceled    EventKind = "payment_intent.canceled"
)

// 署名検証済みのイベント。
// OrderIDはメタデータの値（無い・数値でなければ空文字）。
type PaymentEvent struct {
	ID      string
	Kind    EventKind
	OrderID string
}

// PaymentGateway は決済代行とのやり取り。
// 失敗はErrGateway、署名不正はErrSignatureInvalidで返す。
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, userID int64, orderID int64, items []LineItem) (CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, userID int64, orderID int64, amountMinor int64, currency string) (PaymentIntent, error)
	ParseWebhookEvent(payload []byte, signatureHeader string) (PaymentEvent, error)
}

// 処理済みwebhookイベントIDの記録
type WebhookEventStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}
