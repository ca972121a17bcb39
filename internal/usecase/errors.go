package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// エラーの種類。errors.Isで判定する
var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrUnsupportedCheckoutType = errors.New("unsupported checkout type")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrSignatureInvalid        = errors.New("signature invalid")
	ErrGateway                 = errors.New("payment gateway error")
	ErrStorage                 = errors.New("storage error")
)

type HTTPError struct {
	Status  int
	Message string
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// kindからHTTPステータスを決めてHTTPErrorを作る
func NewHTTPError(kind error, message string) error {
	return &HTTPError{
		Status:  statusOf(kind),
		Message: message,
		Kind:    kind,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func statusOf(kind error) int {
	switch {
	case errors.Is(kind, ErrInvalidInput),
		errors.Is(kind, ErrUnsupportedCheckoutType),
		errors.Is(kind, ErrSignatureInvalid):
		return http.StatusBadRequest
	case errors.Is(kind, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 元のエラーはログにだけ残し、呼び出し側には"db error"を返す
func storageError(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) error {
	logger.ErrorContext(ctx, msg, append(args, "err", err)...)
	return NewHTTPError(ErrStorage, "db error")
}
