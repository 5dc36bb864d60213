package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

func (s *Store) GetCart(ctx context.Context, id int) (*model.Cart, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, display_id, transaction_id, type, order_info, status, checkout_method, locked_at
		FROM carts WHERE id = $1`, id)
	return scanCart(row)
}

func (s *Store) GetCartByTransactionID(ctx context.Context, txID string) (*model.Cart, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, display_id, transaction_id, type, order_info, status, checkout_method, locked_at
		FROM carts WHERE transaction_id = $1`, txID)
	return scanCart(row)
}

func scanCart(row pgx.Row) (*model.Cart, error) {
	var c model.Cart
	if err := row.Scan(&c.ID, &c.DisplayID, &c.TransactionID, &c.Type, &c.OrderInfo, &c.Status,
		&c.CheckoutMethod, &c.LockedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDbError("get cart", err)
	}
	return &c, nil
}

func (s *Store) ListCarts(ctx context.Context) ([]*model.Cart, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_id, transaction_id, type, order_info, status, checkout_method, locked_at
		FROM carts ORDER BY id`)
	if err != nil {
		return nil, shared.WrapDbError("list carts", err)
	}
	defer rows.Close()
	var out []*model.Cart
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) PutCart(ctx context.Context, c *model.Cart) error {
	if c.ID == 0 {
		return s.pool.QueryRow(ctx, `
			INSERT INTO carts (display_id, transaction_id, type, order_info, status, checkout_method, locked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			c.DisplayID, c.TransactionID, c.Type, c.OrderInfo, c.Status, c.CheckoutMethod, c.LockedAt,
		).Scan(&c.ID)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO carts (id, display_id, transaction_id, type, order_info, status, checkout_method, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			display_id = EXCLUDED.display_id, transaction_id = EXCLUDED.transaction_id,
			type = EXCLUDED.type, order_info = EXCLUDED.order_info, status = EXCLUDED.status,
			checkout_method = EXCLUDED.checkout_method, locked_at = EXCLUDED.locked_at`,
		c.ID, c.DisplayID, c.TransactionID, c.Type, c.OrderInfo, c.Status, c.CheckoutMethod, c.LockedAt)
	if err != nil {
		return shared.WrapDbError("put cart", err)
	}
	return nil
}

func (s *Store) DeleteCart(ctx context.Context, id int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id); err != nil {
		return shared.WrapDbError("delete cart", err)
	}
	return nil
}

func (s *Store) ListCartItems(ctx context.Context, cartID int) ([]*model.CartItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cart_id, variant_id, amount FROM cart_items WHERE cart_id = $1 ORDER BY variant_id`, cartID)
	if err != nil {
		return nil, shared.WrapDbError("list cart items", err)
	}
	defer rows.Close()
	var out []*model.CartItem
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.CartID, &it.VariantID, &it.Amount); err != nil {
			return nil, shared.WrapDbError("scan cart item", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s *Store) PutCartItem(ctx context.Context, i *model.CartItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, variant_id, amount) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET amount = EXCLUDED.amount`,
		i.CartID, i.VariantID, i.Amount)
	if err != nil {
		return shared.WrapDbError("put cart item", err)
	}
	return nil
}

func (s *Store) DeleteCartItem(ctx context.Context, cartID, variantID int) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID)
	if err != nil {
		return shared.WrapDbError("delete cart item", err)
	}
	return nil
}

func (s *Store) ListReservations(ctx context.Context, cartID int) ([]*model.Reservation, error) {
	return s.queryReservations(ctx, `
		SELECT id, cart_id, variant_id, unit_id, location, quantity
		FROM reservations WHERE cart_id = $1 ORDER BY id`, cartID)
}

func (s *Store) ListAllReservations(ctx context.Context) ([]*model.Reservation, error) {
	return s.queryReservations(ctx, `
		SELECT id, cart_id, variant_id, unit_id, location, quantity FROM reservations ORDER BY id`)
}

func (s *Store) queryReservations(ctx context.Context, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.WrapDbError("list reservations", err)
	}
	defer rows.Close()
	var out []*model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.CartID, &r.VariantID, &r.UnitID, &r.Location, &r.Quantity); err != nil {
			return nil, shared.WrapDbError("scan reservation", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) PutReservation(ctx context.Context, r *model.Reservation) error {
	if r.ID == 0 {
		return s.pool.QueryRow(ctx, `
			INSERT INTO reservations (cart_id, variant_id, unit_id, location, quantity)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			r.CartID, r.VariantID, r.UnitID, r.Location, r.Quantity,
		).Scan(&r.ID)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reservations (id, cart_id, variant_id, unit_id, location, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			cart_id = EXCLUDED.cart_id, variant_id = EXCLUDED.variant_id, unit_id = EXCLUDED.unit_id,
			location = EXCLUDED.location, quantity = EXCLUDED.quantity`,
		r.ID, r.CartID, r.VariantID, r.UnitID, r.Location, r.Quantity)
	if err != nil {
		return shared.WrapDbError("put reservation", err)
	}
	return nil
}

func (s *Store) DeleteReservation(ctx context.Context, id int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id); err != nil {
		return shared.WrapDbError("delete reservation", err)
	}
	return nil
}
