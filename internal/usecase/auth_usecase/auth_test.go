package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 10
	}
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) LockByID(ctx context.Context, userID int64) error {
	panic("not used in auth tests")
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type IssuerMock struct{ mock.Mock }

func (m *IssuerMock) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	args := m.Called(userID, role, now)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func TestRegister_Success(t *testing.T) {
	repo := new(UserRepoMock)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "alice@example.com" && u.Role == model.RoleUser && u.PasswordHash != "correct horse"
	})).Return(nil).Once()

	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(bcrypt.MinCost), fixedClock{now})
	out, err := uc.Execute(context.Background(), RegisterUserInput{Email: "  Alice@Example.com ", Password: "correct horse"})
	require.NoError(t, err)

	assert.Equal(t, int64(10), out.User.ID)
	assert.Equal(t, now, out.User.CreatedAt)
	assert.True(t, NewBcryptPasswordVerifier().Verify("correct horse", out.User.PasswordHash))
	repo.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	uc := NewRegisterUserUsecase(new(UserRepoMock), NewBcryptPasswordHasher(bcrypt.MinCost), SystemClock{})
	ctx := context.Background()

	_, err := uc.Execute(ctx, RegisterUserInput{Email: "not-an-email", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, err = uc.Execute(ctx, RegisterUserInput{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = uc.Execute(ctx, RegisterUserInput{Email: "a@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(bcrypt.MinCost), SystemClock{})
	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	hash, err := NewBcryptPasswordHasher(bcrypt.MinCost).Hash("correct horse")
	require.NoError(t, err)
	user := model.User{ID: 5, Email: "a@example.com", PasswordHash: hash, Role: model.RoleAdmin}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("成功", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil)
		issuer := new(IssuerMock)
		issuer.On("Issue", int64(5), model.RoleAdmin, now).Return("tok", now.Add(15*time.Minute), nil)

		uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), issuer, fixedClock{now})
		out, err := uc.Execute(context.Background(), LoginInput{Email: "A@example.com", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, "tok", out.Token.AccessToken)
		assert.Equal(t, 900, out.Token.ExpiresIn)
		assert.Equal(t, int64(5), out.User.ID)
	})

	t.Run("パスワード違い", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil)

		uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), new(IssuerMock), fixedClock{now})
		_, err := uc.Execute(context.Background(), LoginInput{Email: "a@example.com", Password: "wrong password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("ユーザーなし", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("FindByEmail", mock.Anything, "b@example.com").Return(model.User{}, repository.ErrNotFound)

		uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), new(IssuerMock), fixedClock{now})
		_, err := uc.Execute(context.Background(), LoginInput{Email: "b@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("DBエラーはそのまま", func(t *testing.T) {
		repo := new(UserRepoMock)
		boom := errors.New("db down")
		repo.On("FindByEmail", mock.Anything, "b@example.com").Return(model.User{}, boom)

		uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), new(IssuerMock), fixedClock{now})
		_, err := uc.Execute(context.Background(), LoginInput{Email: "b@example.com", Password: "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetMe(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("FindByID", mock.Anything, int64(5)).Return(model.User{ID: 5, Email: "a@example.com", Role: model.RoleUser}, nil)
	repo.On("FindByID", mock.Anything, int64(6)).Return(model.User{}, repository.ErrNotFound)

	uc := NewGetMeUsecase(repo)

	u, err := uc.Execute(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = uc.Execute(context.Background(), 6)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
