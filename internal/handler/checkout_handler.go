package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	Type string `json:"type"`
}

type CheckoutSessionResponse struct {
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
	ID      string          `json:"id"`
	URL     string          `json:"url"`
}

type PaymentIntentResponse struct {
	OrderID      int64           `json:"orderId"`
	Total        decimal.Decimal `json:"total"`
	ClientSecret string          `json:"client_secret"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/checkout")

	g.POST("", h.checkout, auth)
	g.POST("/session", h.session, auth)
	g.POST("/paymentIntent", h.paymentIntent, auth)
}

// POST /checkout {"type": "CheckoutSession" | "PaymentIntent"}
func (h *CheckoutHandler) checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	return h.run(c, req.Type)
}

func (h *CheckoutHandler) session(c echo.Context) error {
	return h.run(c, string(usecase.CheckoutTypeSession))
}

func (h *CheckoutHandler) paymentIntent(c echo.Context) error {
	return h.run(c, string(usecase.CheckoutTypePaymentIntent))
}

func (h *CheckoutHandler) run(c echo.Context, checkoutType string) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Checkout(c.Request().Context(), userID, checkoutType)
	if err != nil {
		return writeError(c, err)
	}

	if out.PaymentIntent != nil {
		return c.JSON(http.StatusOK, PaymentIntentResponse{
			OrderID:      out.OrderID,
			Total:        out.Total,
			ClientSecret: out.PaymentIntent.ClientSecret,
		})
	}
	return c.JSON(http.StatusOK, CheckoutSessionResponse{
		OrderID: out.OrderID,
		Total:   out.Total,
		ID:      out.Session.ID,
		URL:     out.Session.URL,
	})
}
