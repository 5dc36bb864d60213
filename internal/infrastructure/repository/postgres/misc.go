package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

func (s *Store) ListOrderHistoryRecords(ctx context.Context) ([]*model.OrderHistoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, transaction_id, order_info, completion_status, created_at
		FROM order_history ORDER BY id`)
	if err != nil {
		return nil, shared.WrapDbError("list order history", err)
	}
	defer rows.Close()
	var out []*model.OrderHistoryRecord
	for rows.Next() {
		var r model.OrderHistoryRecord
		if err := rows.Scan(&r.ID, &r.TransactionID, &r.OrderInfo, &r.CompletionStatus, &r.CreatedAt); err != nil {
			return nil, shared.WrapDbError("scan order history", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) PutOrderHistoryRecord(ctx context.Context, r *model.OrderHistoryRecord) error {
	if r.ID == 0 {
		return s.pool.QueryRow(ctx, `
			INSERT INTO order_history (transaction_id, order_info, completion_status, created_at)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			r.TransactionID, r.OrderInfo, r.CompletionStatus, r.CreatedAt,
		).Scan(&r.ID)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO order_history (id, transaction_id, order_info, completion_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			transaction_id = EXCLUDED.transaction_id, order_info = EXCLUDED.order_info,
			completion_status = EXCLUDED.completion_status, created_at = EXCLUDED.created_at`,
		r.ID, r.TransactionID, r.OrderInfo, r.CompletionStatus, r.CreatedAt)
	if err != nil {
		return shared.WrapDbError("put order history", err)
	}
	return nil
}

func (s *Store) DeleteOrderHistoryRecord(ctx context.Context, id int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM order_history WHERE id = $1`, id); err != nil {
		return shared.WrapDbError("delete order history", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, name string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT name, password_hash, access_level, last_logged_in FROM users WHERE name = $1`, name,
	).Scan(&u.Name, &u.PasswordHash, &u.AccessLevel, &u.LastLoggedIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDbError("get user", err)
	}
	return &u, nil
}

func (s *Store) PutUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (name, password_hash, access_level, last_logged_in)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			password_hash = EXCLUDED.password_hash, access_level = EXCLUDED.access_level,
			last_logged_in = EXCLUDED.last_logged_in`,
		u.Name, u.PasswordHash, u.AccessLevel, u.LastLoggedIn)
	if err != nil {
		return shared.WrapDbError("put user", err)
	}
	return nil
}
