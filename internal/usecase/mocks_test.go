package usecase

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// PaymentGateway / WebhookEventStore mocks
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCheckoutSession(ctx context.Context, userID int64, orderID int64, items []LineItem) (CheckoutSession, error) {
	args := m.Called(ctx, userID, orderID, items)
	s, _ := args.Get(0).(CheckoutSession)
	return s, args.Error(1)
}

func (m *GatewayMock) CreatePaymentIntent(ctx context.Context, userID int64, orderID int64, amountMinor int64, currency string) (PaymentIntent, error) {
	args := m.Called(ctx, userID, orderID, amountMinor, currency)
	pi, _ := args.Get(0).(PaymentIntent)
	return pi, args.Error(1)
}

func (m *GatewayMock) ParseWebhookEvent(payload []byte, signatureHeader string) (PaymentEvent, error) {
	args := m.Called(payload, signatureHeader)
	ev, _ := args.Get(0).(PaymentEvent)
	return ev, args.Error(1)
}

type EventStoreMock struct{ mock.Mock }

func (m *EventStoreMock) Seen(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *EventStoreMock) MarkProcessed(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// =====================
// TxManager / Order repository mocks（保存失敗の経路用）
// =====================

type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders repo.OrderRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository                   { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository           { panic("not used") }
func (r *TxReposMock) OrderStatusLogs() repo.OrderStatusLogRepository { panic("not used") }
func (r *TxReposMock) CartItems() repo.CartItemRepository             { panic("not used") }
func (r *TxReposMock) Products() repo.ProductRepository               { panic("not used") }
func (r *TxReposMock) Users() repo.UserRepository                     { panic("not used") }

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	panic("not used")
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateCheckoutSessionID(ctx context.Context, orderID int64, sessionID string) error {
	args := m.Called(ctx, orderID, sessionID)
	return args.Error(0)
}

// =====================
// helpers
// =====================

func assertErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), want), "error=%q want contains=%q", err.Error(), want)
	}
}

func assertKind(t *testing.T, err error, kind error, status int) {
	t.Helper()
	if !assert.ErrorIs(t, err, kind) {
		return
	}
	he, ok := AsHTTPError(err)
	if assert.True(t, ok) {
		assert.Equal(t, status, he.Status)
	}
}
