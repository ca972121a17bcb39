package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// PUT /cart。cartItemsは必須（空配列ならカートを空にする）
type ReplaceCartRequest struct {
	CartItems *[]usecase.CartItemInput `json:"cartItems"`
}

type CartResponse struct {
	CartItems []model.CartLine `json:"cartItems"`
	Total     decimal.Decimal  `json:"total"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/cart")
	g.Use(auth)

	g.GET("", h.getCart)
	g.PUT("", h.replaceCart)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return h.respondCart(c, userID)
}

func (h *CartHandler) replaceCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ReplaceCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.CartItems == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cartItems is required"})
	}

	if err := h.uc.ReplaceCart(c.Request().Context(), userID, *req.CartItems); err != nil {
		return writeError(c, err)
	}
	return h.respondCart(c, userID)
}

func (h *CartHandler) respondCart(c echo.Context, userID int64) error {
	lines, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CartResponse{CartItems: lines, Total: model.SumLines(lines)})
}
