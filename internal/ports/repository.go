// Package ports declares the boundary interfaces the core components (C4, C5, C6, C9) depend
// on. Concrete adapters live under internal/infrastructure; this package only names the
// contracts, matching the teacher's internal/domain/ports layout.
package ports

import (
	"context"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// Repository is the persistent store contract (SPEC_FULL §6). All methods are safe for
// concurrent use; implementations serialize internally so callers need not lock. Errors use
// the internal/domain/shared taxonomy (ErrNotFound, ErrDbError, ErrDbBroken).
type Repository interface {
	// Catalog
	GetProduct(ctx context.Context, id int) (*model.Product, error)
	PutProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context) ([]*model.Product, error)

	GetVariant(ctx context.Context, id int) (*model.Variant, error)
	PutVariant(ctx context.Context, v *model.Variant) error
	DeleteVariant(ctx context.Context, id int) error
	ListVariants(ctx context.Context) ([]*model.Variant, error)

	GetCollection(ctx context.Context, id int) (*model.Collection, error)
	PutCollection(ctx context.Context, c *model.Collection) error
	DeleteCollection(ctx context.Context, id int) error
	ListCollections(ctx context.Context) ([]*model.Collection, error)

	PutMedia(ctx context.Context, m *model.Media) error
	GetMedia(ctx context.Context, id int) (*model.Media, error)

	// Inventory
	ListInventorySlots(ctx context.Context) ([]*model.InventorySlot, error)
	PutInventorySlot(ctx context.Context, s *model.InventorySlot) error
	DeleteInventorySlot(ctx context.Context, key model.SlotKey) error

	// Carts
	GetCart(ctx context.Context, id int) (*model.Cart, error)
	GetCartByTransactionID(ctx context.Context, txID string) (*model.Cart, error)
	ListCarts(ctx context.Context) ([]*model.Cart, error)
	PutCart(ctx context.Context, c *model.Cart) error
	DeleteCart(ctx context.Context, id int) error

	ListCartItems(ctx context.Context, cartID int) ([]*model.CartItem, error)
	PutCartItem(ctx context.Context, i *model.CartItem) error
	DeleteCartItem(ctx context.Context, cartID, variantID int) error

	ListReservations(ctx context.Context, cartID int) ([]*model.Reservation, error)
	ListAllReservations(ctx context.Context) ([]*model.Reservation, error)
	PutReservation(ctx context.Context, r *model.Reservation) error
	DeleteReservation(ctx context.Context, id int) error

	// Order history
	PutOrderHistoryRecord(ctx context.Context, r *model.OrderHistoryRecord) error
	DeleteOrderHistoryRecord(ctx context.Context, id int) error
	ListOrderHistoryRecords(ctx context.Context) ([]*model.OrderHistoryRecord, error)

	// Users (C9)
	GetUser(ctx context.Context, name string) (*model.User, error)
	PutUser(ctx context.Context, u *model.User) error
}
