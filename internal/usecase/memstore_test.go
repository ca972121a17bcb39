package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// memStore はテスト用のインメモリ実装。
// WithinTxは全体を1本のロックで直列化し、エラー時はスナップショットに戻す。
type memStore struct {
	mu sync.Mutex
	st memState

	// n回目のCartItems().Addで失敗させる（0なら失敗しない）
	failAddAt int
	addCalls  int
}

type memState struct {
	users      map[int64]model.User
	products   map[int64]model.Product
	cart       map[int64][]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64][]model.OrderItem
	logs       []model.OrderStatusLog
	nextID     int64
}

var errInjected = errors.New("injected failure")

func newMemStore() *memStore {
	return &memStore{st: memState{
		users:      map[int64]model.User{},
		products:   map[int64]model.Product{},
		cart:       map[int64][]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64][]model.OrderItem{},
		nextID:     1000,
	}}
}

func (s memState) clone() memState {
	c := memState{
		users:      make(map[int64]model.User, len(s.users)),
		products:   make(map[int64]model.Product, len(s.products)),
		cart:       make(map[int64][]model.CartItem, len(s.cart)),
		orders:     make(map[int64]model.Order, len(s.orders)),
		orderItems: make(map[int64][]model.OrderItem, len(s.orderItems)),
		logs:       append([]model.OrderStatusLog(nil), s.logs...),
		nextID:     s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = append([]model.CartItem(nil), v...)
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]model.OrderItem(nil), v...)
	}
	return c
}

func (m *memStore) addUser(id int64) {
	m.st.users[id] = model.User{ID: id, Email: fmt.Sprintf("u%d@example.com", id), Role: model.RoleUser}
}

func (m *memStore) addProduct(p model.Product) {
	m.st.products[p.ID] = p
}

func (m *memStore) cartOf(userID int64) []model.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CartItem(nil), m.st.cart[userID]...)
}

func (m *memStore) order(id int64) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.orders[id]
}

func (m *memStore) logsOf(orderID int64) []model.OrderStatusLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OrderStatusLog
	for _, l := range m.st.logs {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(memRepos{m}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// トランザクション外から使うカートrepo
func (m *memStore) Carts() repo.CartItemRepository {
	return lockedCarts{m}
}

type lockedCarts struct{ m *memStore }

func (c lockedCarts) ListLinesByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return memRepos(c).ListLinesByUserID(ctx, userID)
}

func (c lockedCarts) DeleteByUserID(ctx context.Context, userID int64) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return memRepos(c).DeleteByUserID(ctx, userID)
}

func (c lockedCarts) Add(ctx context.Context, item model.CartItem) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return memRepos(c).Add(ctx, item)
}

// memReposはロック済みの前提で状態を直接触る。
// 1つの型で全repoを満たすが、メソッド名が衝突するものは別型に分ける。
type memRepos struct{ m *memStore }

func (r memRepos) Orders() repo.OrderRepository                   { return memOrders(r) }
func (r memRepos) OrderItems() repo.OrderItemRepository           { return memOrderItems(r) }
func (r memRepos) OrderStatusLogs() repo.OrderStatusLogRepository { return memLogs(r) }
func (r memRepos) CartItems() repo.CartItemRepository             { return r }
func (r memRepos) Products() repo.ProductRepository               { return memProducts(r) }
func (r memRepos) Users() repo.UserRepository                     { return memUsers(r) }

func (r memRepos) ListLinesByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	lines := []model.CartLine{}
	for _, it := range r.m.st.cart[userID] {
		p := r.m.st.products[it.ProductID]
		lines = append(lines, model.CartLine{
			ProductID: it.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
	}
	return lines, nil
}

func (r memRepos) DeleteByUserID(ctx context.Context, userID int64) error {
	delete(r.m.st.cart, userID)
	return nil
}

func (r memRepos) Add(ctx context.Context, item model.CartItem) error {
	r.m.addCalls++
	if r.m.failAddAt > 0 && r.m.addCalls == r.m.failAddAt {
		return errInjected
	}
	if _, ok := r.m.st.products[item.ProductID]; !ok {
		return repo.ErrInvalidReference
	}
	for _, it := range r.m.st.cart[item.UserID] {
		if it.ProductID == item.ProductID {
			return repo.ErrDuplicate
		}
	}
	r.m.st.cart[item.UserID] = append(r.m.st.cart[item.UserID], item)
	return nil
}

type memOrders memRepos

func (r memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	if _, ok := r.m.st.users[order.UserID]; !ok {
		return 0, repo.ErrInvalidReference
	}
	r.m.st.nextID++
	order.ID = r.m.st.nextID
	r.m.st.orders[order.ID] = order
	return order.ID, nil
}

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.m.st.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var all []model.Order
	for _, o := range r.m.st.orders {
		if o.UserID == userID {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Order{}, int64(len(all)), nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := r.m.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.m.st.orders[orderID] = o
	return nil
}

func (r memOrders) UpdateCheckoutSessionID(ctx context.Context, orderID int64, sessionID string) error {
	o, ok := r.m.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.CheckoutSessionID = &sessionID
	r.m.st.orders[orderID] = o
	return nil
}

type memOrderItems memRepos

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		if _, ok := r.m.st.products[it.ProductID]; !ok {
			return repo.ErrInvalidReference
		}
		r.m.st.nextID++
		it.ID = r.m.st.nextID
		it.OrderID = orderID
		r.m.st.orderItems[orderID] = append(r.m.st.orderItems[orderID], it)
	}
	return nil
}

func (r memOrderItems) ListDetailsByOrderID(ctx context.Context, orderID int64) ([]model.OrderItemDetail, error) {
	out := []model.OrderItemDetail{}
	for _, it := range r.m.st.orderItems[orderID] {
		p := r.m.st.products[it.ProductID]
		out = append(out, model.OrderItemDetail{
			ProductID:       it.ProductID,
			Name:            p.Name,
			Image:           p.Image,
			PriceAtPurchase: it.PriceAtPurchase,
			Quantity:        it.Quantity,
		})
	}
	return out, nil
}

type memLogs memRepos

func (r memLogs) Create(ctx context.Context, log model.OrderStatusLog) error {
	r.m.st.nextID++
	log.ID = r.m.st.nextID
	r.m.st.logs = append(r.m.st.logs, log)
	return nil
}

func (r memLogs) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusLog, error) {
	var out []model.OrderStatusLog
	for _, l := range r.m.st.logs {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memProducts memRepos

func (r memProducts) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := r.m.st.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memUsers memRepos

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.m.st.users {
		if u.Email == user.Email {
			return repo.ErrDuplicate
		}
	}
	r.m.st.nextID++
	user.ID = r.m.st.nextID
	r.m.st.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, userID int64) (model.User, error) {
	u, ok := r.m.st.users[userID]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range r.m.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

// WithinTx全体がロック済みなので存在確認だけ
func (r memUsers) LockByID(ctx context.Context, userID int64) error {
	_, err := r.FindByID(ctx, userID)
	return err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
