package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/usecase"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

const (
	metadataOrderID = "orderId"
	metadataUserID  = "userId"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
	Timeout       time.Duration
	// テスト用。空ならStripe本番API
	BaseURL string
}

// StripeGateway はusecase.PaymentGatewayのStripe実装。
// API呼び出しはサーキットブレーカー越しに行う。
type StripeGateway struct {
	sessions      *session.Client
	intents       *paymentintent.Client
	cb            *gobreaker.CircuitBreaker[any]
	webhookSecret string
	currency      string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &StripeGateway{
		sessions:      &session.Client{B: backend, Key: cfg.SecretKey},
		intents:       &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		cb:            cb,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func orderMetadata(userID int64, orderID int64) map[string]string {
	return map[string]string{
		metadataOrderID: strconv.FormatInt(orderID, 10),
		metadataUserID:  strconv.FormatInt(userID, 10),
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, userID int64, orderID int64, items []usecase.LineItem) (usecase.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, it := range items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
		}
		if it.Image != "" {
			productData.Images = []*string{stripe.String(it.Image)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		// payment_intent.* イベントでも注文が分かるようにPaymentIntentにも付ける
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: orderMetadata(userID, orderID),
		},
	}
	params.Metadata = orderMetadata(userID, orderID)
	params.Context = ctx

	res, err := g.call(ctx, func() (any, error) {
		return g.sessions.New(params)
	})
	if err != nil {
		return usecase.CheckoutSession{}, err
	}
	s := res.(*stripe.CheckoutSession)
	return usecase.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, userID int64, orderID int64, amountMinor int64, currency string) (usecase.PaymentIntent, error) {
	if amountMinor <= 0 {
		return usecase.PaymentIntent{}, fmt.Errorf("%w: amount must be positive", usecase.ErrGateway)
	}
	if currency == "" {
		currency = g.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Metadata = orderMetadata(userID, orderID)
	params.Context = ctx

	res, err := g.call(ctx, func() (any, error) {
		return g.intents.New(params)
	})
	if err != nil {
		return usecase.PaymentIntent{}, err
	}
	pi := res.(*stripe.PaymentIntent)
	return usecase.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// call はブレーカー越しにAPIを呼ぶ。失敗（ブレーカーopen含む）はErrGateway
func (g *StripeGateway) call(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrGateway, err)
	}
	res, err := g.cb.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrGateway, err)
	}
	return res, nil
}

type eventObject struct {
	Metadata map[string]string `json:"metadata"`
}

// ParseWebhookEvent は署名を検証してイベントを取り出す。
// 署名が合わなければ中身は見ない。
func (g *StripeGateway) ParseWebhookEvent(payload []byte, signatureHeader string) (usecase.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("%w: %v", usecase.ErrSignatureInvalid, err)
	}

	out := usecase.PaymentEvent{
		ID:   event.ID,
		Kind: usecase.EventKind(event.Type),
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var obj eventObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err == nil {
		out.OrderID = obj.Metadata[metadataOrderID]
	}
	return out, nil
}
