package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	store   *memStore
	carts   *CartUsecase
	gateway *GatewayMock
	metrics *metrics.Metrics
	uc      *CheckoutUsecase
}

func newCheckoutFixture(t *testing.T) checkoutFixture {
	t.Helper()
	s := newTestStore()
	carts := newCartUsecase(s)
	orders := NewOrderUsecase(s, discardLogger())
	gw := new(GatewayMock)
	m := metrics.New(prometheus.NewRegistry())

	require.NoError(t, carts.ReplaceCart(context.Background(), userA, []CartItemInput{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}))

	return checkoutFixture{
		store:   s,
		carts:   carts,
		gateway: gw,
		metrics: m,
		uc:      NewCheckoutUsecase(carts, orders, gw, "sgd", m, discardLogger()),
	}
}

func TestCheckout_UnsupportedTypeWritesNothing(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.uc.Checkout(context.Background(), userA, "BankTransfer")
	assertKind(t, err, ErrUnsupportedCheckoutType, http.StatusBadRequest)

	f.store.mu.Lock()
	assert.Len(t, f.store.st.orders, 0)
	f.store.mu.Unlock()
	f.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("unsupported", "error")))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.uc.Checkout(context.Background(), userB, string(CheckoutTypeSession))
	assertKind(t, err, ErrInvalidInput, http.StatusBadRequest)
	assertErrContains(t, err, "cart empty")
}

func TestCheckout_Session(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	wantItems := []LineItem{
		{Name: "apple", Image: "apple.png", UnitAmount: 1000, Quantity: 2},
		{Name: "pear", Image: "pear.png", UnitAmount: 550, Quantity: 1},
	}
	f.gateway.On("CreateCheckoutSession", mock.Anything, userA, mock.AnythingOfType("int64"), wantItems).
		Return(CheckoutSession{ID: "cs_test_1", URL: "https://pay/cs_test_1"}, nil).Once()

	out, err := f.uc.Checkout(ctx, userA, "CheckoutSession")
	require.NoError(t, err)
	require.NotNil(t, out.Session)
	assert.Nil(t, out.PaymentIntent)
	assert.Equal(t, "cs_test_1", out.Session.ID)
	assert.True(t, out.Total.Equal(d("25.50")))

	o := f.store.order(out.OrderID)
	assert.Equal(t, model.OrderStatusCreated, o.Status)
	require.NotNil(t, o.CheckoutSessionID)
	assert.Equal(t, "cs_test_1", *o.CheckoutSessionID)

	// カートは消さない
	assert.Len(t, f.store.cartOf(userA), 2)
	f.gateway.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("CheckoutSession", "ok")))
}

func TestCheckout_PaymentIntent(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.On("CreatePaymentIntent", mock.Anything, userA, mock.AnythingOfType("int64"), int64(2550), "sgd").
		Return(PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()

	out, err := f.uc.Checkout(context.Background(), userA, "PaymentIntent")
	require.NoError(t, err)
	require.NotNil(t, out.PaymentIntent)
	assert.Equal(t, "pi_1_secret", out.PaymentIntent.ClientSecret)
	assert.Equal(t, "pi_1", *f.store.order(out.OrderID).CheckoutSessionID)
	f.gateway.AssertExpectations(t)
}

func TestCheckout_PaymentIntentRoundsHalfUp(t *testing.T) {
	f := newCheckoutFixture(t)
	f.store.mu.Lock()
	p := f.store.st.products[3]
	p.Price = d("25.505")
	f.store.st.products[3] = p
	f.store.mu.Unlock()
	require.NoError(t, f.carts.ReplaceCart(context.Background(), userB, []CartItemInput{{ProductID: 3, Quantity: 1}}))

	f.gateway.On("CreatePaymentIntent", mock.Anything, userB, mock.AnythingOfType("int64"), int64(2551), "sgd").
		Return(PaymentIntent{ID: "pi_2", ClientSecret: "s"}, nil).Once()

	_, err := f.uc.Checkout(context.Background(), userB, "PaymentIntent")
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)
}

func TestCheckout_GatewayFailureLeavesOrderCreated(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.On("CreateCheckoutSession", mock.Anything, userA, mock.AnythingOfType("int64"), mock.Anything).
		Return(CheckoutSession{}, errors.New("timeout")).Once()

	_, err := f.uc.Checkout(context.Background(), userA, "CheckoutSession")
	assertKind(t, err, ErrGateway, http.StatusBadGateway)

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	require.Len(t, f.store.st.orders, 1)
	for _, o := range f.store.st.orders {
		assert.Equal(t, model.OrderStatusCreated, o.Status)
		assert.Nil(t, o.CheckoutSessionID)
	}
}
