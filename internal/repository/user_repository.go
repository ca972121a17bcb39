package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type UserRepository interface {
	//新規ユーザー作成。emailが重複ならErrDuplicate
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// トランザクション内でユーザー行をロックする（ユーザー単位の直列化）
	LockByID(ctx context.Context, userID int64) error
}
