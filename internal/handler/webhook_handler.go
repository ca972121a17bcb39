package handler

import (
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Stripeのイベントは64KB以内
const maxWebhookBodyBytes = int64(65536)

type WebhookHandler struct {
	uc *usecase.WebhookUsecase
}

func NewWebhookHandler(uc *usecase.WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

// 決済代行から呼ばれるので認証なし（署名で検証する）
func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout/webhook", h.receive)
}

func (h *WebhookHandler) receive(c echo.Context) error {
	//署名検証には生のbodyが要る
	body := http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.uc.HandleWebhook(c.Request().Context(), payload, sig); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
