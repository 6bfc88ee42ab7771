package persistence

import (
	"context"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"storefront/internal/service/storefront/domain"
)

// --- products ---

type memProductRepo struct {
	s  *MemoryStore
	tx *memTx
}

func cloneProduct(p domain.Product) *domain.Product {
	if p.CategoryID != nil {
		id := *p.CategoryID
		p.CategoryID = &id
	}
	return &p
}

func (r *memProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *memProductRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r *memProductRepo) LockForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	if r.tx != nil {
		if err := r.s.lockRow(ctx, r.tx, rowKey{productRows, id}); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *memProductRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return errors.Errorf("stock of product %d would become negative (%d)", id, stock)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	track(r.tx, r.s.products, id)
	p.Stock = stock
	r.s.products[id] = p
	return nil
}

func (r *memProductRepo) Create(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.productSeq++
	p.ID = r.s.productSeq
	track(r.tx, r.s.products, p.ID)
	r.s.products[p.ID] = *cloneProduct(*p)
	return nil
}

// Update 覆盖商品的描述性字段，库存只能经由 UpdateStock 修改。
func (r *memProductRepo) Update(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	track(r.tx, r.s.products, p.ID)
	next := *cloneProduct(*p)
	next.Stock = old.Stock
	r.s.products[p.ID] = next
	return nil
}

func (r *memProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	track(r.tx, r.s.products, id)
	p.Active = active
	r.s.products[id] = p
	return nil
}

func (r *memProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, error) {
	r.s.mu.Lock()
	var out []*domain.Product
	search := strings.ToLower(f.Search)
	for _, p := range r.s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.InStockOnly && p.Stock <= 0 {
			continue
		}
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	r.s.mu.Unlock()

	slices.SortFunc(out, func(a, b *domain.Product) int {
		switch f.Sort {
		case domain.SortPriceAsc:
			if c := a.Price.Cmp(b.Price); c != 0 {
				return c
			}
		case domain.SortPriceDesc:
			if c := b.Price.Cmp(a.Price); c != 0 {
				return c
			}
		case domain.SortName:
			if c := strings.Compare(a.Name, b.Name); c != 0 {
				return c
			}
		default:
			return compareID(b.ID, a.ID)
		}
		return compareID(a.ID, b.ID)
	})
	return paginate(out, f.Offset, f.Limit), nil
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// --- carts ---

type memCartRepo struct {
	s  *MemoryStore
	tx *memTx
}

func (r *memCartRepo) FindByClientID(ctx context.Context, clientID int64) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.cartByUser[clientID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	cart := r.s.carts[id]
	cart.Items = nil
	for _, it := range r.s.cartItems {
		if it.CartID == id {
			cart.Items = append(cart.Items, it)
		}
	}
	slices.SortFunc(cart.Items, func(a, b domain.CartItem) int { return compareID(a.ID, b.ID) })
	return &cart, nil
}

func (r *memCartRepo) Create(ctx context.Context, cart *domain.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cartByUser[cart.ClientID]; ok {
		return errors.Wrapf(domain.ErrConflict, "cart for client %d already exists", cart.ClientID)
	}
	r.s.cartSeq++
	cart.ID = r.s.cartSeq
	track(r.tx, r.s.carts, cart.ID)
	track(r.tx, r.s.cartByUser, cart.ClientID)
	r.s.carts[cart.ID] = domain.Cart{ID: cart.ID, ClientID: cart.ClientID}
	r.s.cartByUser[cart.ClientID] = cart.ID
	return nil
}

// findItemLocked 按 (cart_id, product_id) 查找购物车行，调用方需持有 s.mu。
func (r *memCartRepo) findItemLocked(cartID, productID int64) (domain.CartItem, bool) {
	for _, it := range r.s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

func (r *memCartRepo) upsertLocked(cartID, productID int64, quantity func(old int) int) error {
	if _, ok := r.s.carts[cartID]; !ok {
		return domain.ErrCartNotFound
	}
	it, ok := r.findItemLocked(cartID, productID)
	if !ok {
		r.s.itemSeq++
		it = domain.CartItem{ID: r.s.itemSeq, CartID: cartID, ProductID: productID}
	}
	track(r.tx, r.s.cartItems, it.ID)
	it.Quantity = quantity(it.Quantity)
	r.s.cartItems[it.ID] = it
	return nil
}

func (r *memCartRepo) AddItemQuantity(ctx context.Context, cartID, productID int64, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.upsertLocked(cartID, productID, func(old int) int { return old + delta })
}

func (r *memCartRepo) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.findItemLocked(cartID, productID)
	if !ok {
		return domain.ErrItemNotFound
	}
	track(r.tx, r.s.cartItems, it.ID)
	it.Quantity = quantity
	r.s.cartItems[it.ID] = it
	return nil
}

func (r *memCartRepo) UpdateItemQuantities(ctx context.Context, items []domain.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, in := range items {
		it, ok := r.s.cartItems[in.ID]
		if !ok {
			continue
		}
		track(r.tx, r.s.cartItems, in.ID)
		it.Quantity = in.Quantity
		r.s.cartItems[in.ID] = it
	}
	return nil
}

func (r *memCartRepo) DeleteItems(ctx context.Context, itemIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range itemIDs {
		if _, ok := r.s.cartItems[id]; ok {
			track(r.tx, r.s.cartItems, id)
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

func (r *memCartRepo) DeleteItem(ctx context.Context, cartID, productID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if it, ok := r.findItemLocked(cartID, productID); ok {
		track(r.tx, r.s.cartItems, it.ID)
		delete(r.s.cartItems, it.ID)
	}
	return nil
}

func (r *memCartRepo) ClearItems(ctx context.Context, cartID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			track(r.tx, r.s.cartItems, id)
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

// --- orders ---

type memOrderRepo struct {
	s  *MemoryStore
	tx *memTx
}

func (r *memOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orderSeq++
	o.ID = r.s.orderSeq
	track(r.tx, r.s.orders, o.ID)
	stored := *o
	stored.Details = nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Details = r.s.detailsOfLocked(id)
	return &o, nil
}

func (s *MemoryStore) detailsOfLocked(orderID int64) []domain.OrderDetail {
	var out []domain.OrderDetail
	for _, d := range s.details {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.OrderDetail) int { return compareID(a.ID, b.ID) })
	return out
}

func (r *memOrderRepo) LockForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	if r.tx != nil {
		if err := r.s.lockRow(ctx, r.tx, rowKey{orderRows, id}); err != nil {
			return nil, err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (r *memOrderRepo) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	r.s.mu.Lock()
	out := make([]*domain.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		o.Details = r.s.detailsOfLocked(o.ID)
		out = append(out, &o)
	}
	r.s.mu.Unlock()
	slices.SortFunc(out, func(a, b *domain.Order) int { return compareID(a.ID, b.ID) })
	return paginate(out, offset, limit), nil
}

func (r *memOrderRepo) ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	r.s.mu.Lock()
	var out []*domain.Order
	for _, o := range r.s.orders {
		if o.ClientID != clientID {
			continue
		}
		o.Details = r.s.detailsOfLocked(o.ID)
		out = append(out, &o)
	}
	r.s.mu.Unlock()
	slices.SortFunc(out, func(a, b *domain.Order) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return compareID(b.ID, a.ID)
	})
	return out, nil
}

func (r *memOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	track(r.tx, r.s.orders, o.ID)
	stored := *o
	stored.Details = nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	track(r.tx, r.s.orders, id)
	o.Status = status
	r.s.orders[id] = o
	return nil
}

// Delete 删除订单及其全部明细（级联）。
func (r *memOrderRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	for did, d := range r.s.details {
		if d.OrderID == id {
			track(r.tx, r.s.details, did)
			delete(r.s.details, did)
		}
	}
	track(r.tx, r.s.orders, id)
	delete(r.s.orders, id)
	return nil
}

// --- order details ---

type memOrderDetailRepo struct {
	s  *MemoryStore
	tx *memTx
}

func (r *memOrderDetailRepo) Create(ctx context.Context, d *domain.OrderDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[d.OrderID]; !ok {
		return domain.ErrOrderNotFound
	}
	r.s.detailSeq++
	d.ID = r.s.detailSeq
	track(r.tx, r.s.details, d.ID)
	r.s.details[d.ID] = *d
	return nil
}

func (r *memOrderDetailRepo) FindByID(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return nil, domain.ErrLineNotFound
	}
	return &d, nil
}

func (r *memOrderDetailRepo) List(ctx context.Context, offset, limit int) ([]*domain.OrderDetail, error) {
	r.s.mu.Lock()
	out := make([]*domain.OrderDetail, 0, len(r.s.details))
	for _, d := range r.s.details {
		out = append(out, &d)
	}
	r.s.mu.Unlock()
	slices.SortFunc(out, func(a, b *domain.OrderDetail) int { return compareID(a.ID, b.ID) })
	return paginate(out, offset, limit), nil
}

func (r *memOrderDetailRepo) ListByOrder(ctx context.Context, orderID int64) ([]*domain.OrderDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	details := r.s.detailsOfLocked(orderID)
	out := make([]*domain.OrderDetail, len(details))
	for i := range details {
		out[i] = &details[i]
	}
	return out, nil
}

func (r *memOrderDetailRepo) LockForUpdate(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	if r.tx != nil {
		if err := r.s.lockRow(ctx, r.tx, rowKey{detailRows, id}); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// LockByOrder 按 ID 升序锁住订单的全部明细。
func (r *memOrderDetailRepo) LockByOrder(ctx context.Context, orderID int64) ([]*domain.OrderDetail, error) {
	details, err := r.ListByOrder(ctx, orderID)
	if err != nil || r.tx == nil {
		return details, err
	}
	for _, d := range details {
		if err := r.s.lockRow(ctx, r.tx, rowKey{detailRows, d.ID}); err != nil {
			return nil, err
		}
	}
	// 加锁期间可能有明细被修改，加锁后重新读取。
	return r.ListByOrder(ctx, orderID)
}

func (r *memOrderDetailRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return domain.ErrLineNotFound
	}
	track(r.tx, r.s.details, id)
	d.Quantity = quantity
	r.s.details[id] = d
	return nil
}

func (r *memOrderDetailRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.details[id]; !ok {
		return domain.ErrLineNotFound
	}
	track(r.tx, r.s.details, id)
	delete(r.s.details, id)
	return nil
}

// --- simple entities ---

type memTable[T any] struct {
	rows     map[int64]T
	seq      int64
	id       func(*T) *int64
	notFound error
}

func newMemTable[T any](id func(*T) *int64, notFound error) *memTable[T] {
	return &memTable[T]{rows: make(map[int64]T), id: id, notFound: notFound}
}

// memCrud 是 domain.CrudRepository 的通用内存实现。
type memCrud[T any] struct {
	s  *MemoryStore
	tx *memTx
	t  *memTable[T]
}

func (r *memCrud[T]) Create(ctx context.Context, e *T) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.t.seq++
	*r.t.id(e) = r.t.seq
	track(r.tx, r.t.rows, r.t.seq)
	r.t.rows[r.t.seq] = *e
	return nil
}

func (r *memCrud[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.t.rows[id]
	if !ok {
		return nil, r.t.notFound
	}
	return &e, nil
}

func (r *memCrud[T]) List(ctx context.Context, offset, limit int) ([]*T, error) {
	r.s.mu.Lock()
	ids := make([]int64, 0, len(r.t.rows))
	for id := range r.t.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		e := r.t.rows[id]
		out = append(out, &e)
	}
	r.s.mu.Unlock()
	return paginate(out, offset, limit), nil
}

func (r *memCrud[T]) Update(ctx context.Context, id int64, e *T) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.t.rows[id]; !ok {
		return r.t.notFound
	}
	*r.t.id(e) = id
	track(r.tx, r.t.rows, id)
	r.t.rows[id] = *e
	return nil
}

func (r *memCrud[T]) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.t.rows[id]; !ok {
		return r.t.notFound
	}
	track(r.tx, r.t.rows, id)
	delete(r.t.rows, id)
	return nil
}

type memClientRepo struct {
	memCrud[domain.Client]
}

// Create 模拟 email 上的唯一索引。
func (r *memClientRepo) Create(ctx context.Context, c *domain.Client) error {
	if existing, err := r.FindByEmail(ctx, c.Email); err == nil && existing != nil {
		return errors.Wrapf(domain.ErrConflict, "email %s already registered", c.Email)
	}
	return r.memCrud.Create(ctx, c)
}

func (r *memClientRepo) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.t.rows {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, domain.ErrClientNotFound
}
