package usecase

import (
	"context"
	"errors"
	"log/slog"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートは明細の集合で、更新は常に丸ごと入れ替えます。
type CartUsecase struct {
	tx     repo.TransactionManager
	carts  repo.CartItemRepository
	logger *slog.Logger
}

func NewCartUsecase(
	tx repo.TransactionManager,
	carts repo.CartItemRepository,
	logger *slog.Logger,
) *CartUsecase {
	return &CartUsecase{
		tx:     tx,
		carts:  carts,
		logger: logger,
	}
}

// PUT /cart の1明細
type CartItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// GetCart はカート取得。無ければ空（404にはしない）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) ([]model.CartLine, error) {
	if userID <= 0 {
		return []model.CartLine{}, NewHTTPError(ErrUnauthorized, "unauthorized")
	}

	lines, err := u.carts.ListLinesByUserID(ctx, userID)
	if err != nil {
		return []model.CartLine{}, storageError(ctx, u.logger, "get cart failed", err, "user_id", userID)
	}
	return lines, nil
}

// ReplaceCart はカートを丸ごと入れ替える。
// ユーザー行をロックしてから 削除→追加 を1トランザクションで行う。
// 途中で失敗したら元のカートのまま。
func (u *CartUsecase) ReplaceCart(ctx context.Context, userID int64, items []CartItemInput) error {
	if userID <= 0 {
		return NewHTTPError(ErrUnauthorized, "unauthorized")
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			return NewHTTPError(ErrInvalidInput, "invalid product_id")
		}
		if it.Quantity <= 0 {
			return NewHTTPError(ErrInvalidInput, "invalid quantity")
		}
		if _, dup := seen[it.ProductID]; dup {
			return NewHTTPError(ErrInvalidInput, "duplicate product_id")
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じユーザーの更新はここで直列になる
		if err := r.Users().LockByID(ctx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(ErrUnauthorized, "unauthorized")
			}
			return storageError(ctx, u.logger, "lock user failed", err, "user_id", userID)
		}

		if len(ids) > 0 {
			products, err := r.Products().FindByIDs(ctx, ids)
			if err != nil {
				return storageError(ctx, u.logger, "find products failed", err, "user_id", userID)
			}
			if len(products) != len(ids) {
				return NewHTTPError(ErrInvalidInput, "unknown product")
			}
		}

		if err := r.CartItems().DeleteByUserID(ctx, userID); err != nil {
			return storageError(ctx, u.logger, "clear cart failed", err, "user_id", userID)
		}

		for _, it := range items {
			err := r.CartItems().Add(ctx, model.CartItem{
				UserID:    userID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			})
			if errors.Is(err, repo.ErrInvalidReference) {
				return NewHTTPError(ErrInvalidInput, "unknown product")
			}
			if err != nil {
				return storageError(ctx, u.logger, "add cart item failed", err, "user_id", userID, "product_id", it.ProductID)
			}
		}
		return nil
	})
}
