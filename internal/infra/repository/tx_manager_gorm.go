package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders          repo.OrderRepository
	orderItems      repo.OrderItemRepository
	orderStatusLogs repo.OrderStatusLogRepository
	cartItems       repo.CartItemRepository
	products        repo.ProductRepository
	users           repo.UserRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                   { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository           { return r.orderItems }
func (r *txReposGorm) OrderStatusLogs() repo.OrderStatusLogRepository { return r.orderStatusLogs }
func (r *txReposGorm) CartItems() repo.CartItemRepository             { return r.cartItems }
func (r *txReposGorm) Products() repo.ProductRepository               { return r.products }
func (r *txReposGorm) Users() repo.UserRepository                     { return r.users }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返すとrollback。
// gorm.DB.Transactionがpanic時もrollbackし、コネクションをプールに返す。
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:          NewOrderGormRepository(tx),
			orderItems:      NewOrderItemGormRepository(tx),
			orderStatusLogs: NewOrderStatusLogGormRepository(tx),
			cartItems:       NewCartGormRepository(tx),
			products:        NewProductGormRepository(tx),
			users:           NewUserGormRepository(tx),
		}
		return fn(r)
	})
}
