package cartengine

import (
	"context"
	"sync"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

// fakeRepo is a minimal in-memory ports.Repository used only by this package's tests. It is not
// exhaustively concurrency-safe beyond a coarse mutex since the engine itself serializes all
// repository access onto its single worker goroutine.
type fakeRepo struct {
	mu sync.Mutex

	nextID int

	carts        map[int]*model.Cart
	cartItems    map[int][]*model.CartItem
	reservations map[int]*model.Reservation
	slots        []*model.InventorySlot
	history      map[int]*model.OrderHistoryRecord
	products     map[int]*model.Product
	variants     map[int]*model.Variant
	collections  map[int]*model.Collection
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		carts:        make(map[int]*model.Cart),
		cartItems:    make(map[int][]*model.CartItem),
		reservations: make(map[int]*model.Reservation),
		history:      make(map[int]*model.OrderHistoryRecord),
		products:     make(map[int]*model.Product),
		variants:     make(map[int]*model.Variant),
		collections:  make(map[int]*model.Collection),
	}
}

func (f *fakeRepo) newID() int {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) GetProduct(ctx context.Context, id int) (*model.Product, error) { return f.products[id], nil }
func (f *fakeRepo) PutProduct(ctx context.Context, p *model.Product) error {
	if p.ID == 0 {
		p.ID = f.newID()
	}
	f.products[p.ID] = p
	return nil
}
func (f *fakeRepo) DeleteProduct(ctx context.Context, id int) error { delete(f.products, id); return nil }
func (f *fakeRepo) ListProducts(ctx context.Context) ([]*model.Product, error) {
	out := make([]*model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) GetVariant(ctx context.Context, id int) (*model.Variant, error) { return f.variants[id], nil }
func (f *fakeRepo) PutVariant(ctx context.Context, v *model.Variant) error {
	if v.ID == 0 {
		v.ID = f.newID()
	}
	f.variants[v.ID] = v
	return nil
}
func (f *fakeRepo) DeleteVariant(ctx context.Context, id int) error { delete(f.variants, id); return nil }
func (f *fakeRepo) ListVariants(ctx context.Context) ([]*model.Variant, error) {
	out := make([]*model.Variant, 0, len(f.variants))
	for _, v := range f.variants {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRepo) GetCollection(ctx context.Context, id int) (*model.Collection, error) {
	return f.collections[id], nil
}
func (f *fakeRepo) PutCollection(ctx context.Context, c *model.Collection) error {
	if c.ID == 0 {
		c.ID = f.newID()
	}
	f.collections[c.ID] = c
	return nil
}
func (f *fakeRepo) DeleteCollection(ctx context.Context, id int) error {
	delete(f.collections, id)
	return nil
}
func (f *fakeRepo) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	out := make([]*model.Collection, 0, len(f.collections))
	for _, c := range f.collections {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) PutMedia(ctx context.Context, m *model.Media) error { return nil }
func (f *fakeRepo) GetMedia(ctx context.Context, id int) (*model.Media, error) { return nil, shared.ErrNotFound }

func (f *fakeRepo) ListInventorySlots(ctx context.Context) ([]*model.InventorySlot, error) {
	return f.slots, nil
}
func (f *fakeRepo) PutInventorySlot(ctx context.Context, s *model.InventorySlot) error {
	for i, existing := range f.slots {
		if existing.Key == s.Key {
			f.slots[i] = s
			return nil
		}
	}
	f.slots = append(f.slots, s)
	return nil
}
func (f *fakeRepo) DeleteInventorySlot(ctx context.Context, key model.SlotKey) error {
	for i, s := range f.slots {
		if s.Key == key {
			f.slots = append(f.slots[:i], f.slots[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) GetCart(ctx context.Context, id int) (*model.Cart, error) {
	c, ok := f.carts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}
func (f *fakeRepo) GetCartByTransactionID(ctx context.Context, txID string) (*model.Cart, error) {
	for _, c := range f.carts {
		if c.TransactionID == txID {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}
func (f *fakeRepo) ListCarts(ctx context.Context) ([]*model.Cart, error) {
	out := make([]*model.Cart, 0, len(f.carts))
	for _, c := range f.carts {
		out = append(out, c)
	}
	return out, nil
}
func (f *fakeRepo) PutCart(ctx context.Context, c *model.Cart) error {
	if c.ID == 0 {
		c.ID = f.newID()
	}
	f.carts[c.ID] = c
	return nil
}
func (f *fakeRepo) DeleteCart(ctx context.Context, id int) error {
	delete(f.carts, id)
	delete(f.cartItems, id)
	for rid, r := range f.reservations {
		if r.CartID == id {
			delete(f.reservations, rid)
		}
	}
	return nil
}

func (f *fakeRepo) ListCartItems(ctx context.Context, cartID int) ([]*model.CartItem, error) {
	return f.cartItems[cartID], nil
}
func (f *fakeRepo) PutCartItem(ctx context.Context, i *model.CartItem) error {
	items := f.cartItems[i.CartID]
	for idx, existing := range items {
		if existing.VariantID == i.VariantID {
			items[idx] = i
			f.cartItems[i.CartID] = items
			return nil
		}
	}
	f.cartItems[i.CartID] = append(items, i)
	return nil
}
func (f *fakeRepo) DeleteCartItem(ctx context.Context, cartID, variantID int) error {
	items := f.cartItems[cartID]
	for idx, it := range items {
		if it.VariantID == variantID {
			f.cartItems[cartID] = append(items[:idx], items[idx+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) ListReservations(ctx context.Context, cartID int) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range f.reservations {
		if r.CartID == cartID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeRepo) ListAllReservations(ctx context.Context) ([]*model.Reservation, error) {
	out := make([]*model.Reservation, 0, len(f.reservations))
	for _, r := range f.reservations {
		out = append(out, r)
	}
	return out, nil
}
func (f *fakeRepo) PutReservation(ctx context.Context, r *model.Reservation) error {
	if r.ID == 0 {
		r.ID = f.newID()
	}
	f.reservations[r.ID] = r
	return nil
}
func (f *fakeRepo) DeleteReservation(ctx context.Context, id int) error {
	delete(f.reservations, id)
	return nil
}

func (f *fakeRepo) PutOrderHistoryRecord(ctx context.Context, r *model.OrderHistoryRecord) error {
	if r.ID == 0 {
		r.ID = f.newID()
	}
	f.history[r.ID] = r
	return nil
}
func (f *fakeRepo) DeleteOrderHistoryRecord(ctx context.Context, id int) error {
	delete(f.history, id)
	return nil
}
func (f *fakeRepo) ListOrderHistoryRecords(ctx context.Context) ([]*model.OrderHistoryRecord, error) {
	out := make([]*model.OrderHistoryRecord, 0, len(f.history))
	for _, r := range f.history {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) GetUser(ctx context.Context, name string) (*model.User, error) {
	return nil, shared.ErrNotFound
}
func (f *fakeRepo) PutUser(ctx context.Context, u *model.User) error { return nil }
