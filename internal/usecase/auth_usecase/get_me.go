package auth

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// トークンは有効だがユーザーが消えている
var ErrUserNotFound = errors.New("user not found")

// ログイン中のユーザー情報
type GetMeUsecase struct {
	userRepo repository.UserRepository
}

func NewGetMeUsecase(userRepo repository.UserRepository) *GetMeUsecase {
	return &GetMeUsecase{userRepo: userRepo}
}

func (u *GetMeUsecase) Execute(ctx context.Context, userID int64) (model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}
