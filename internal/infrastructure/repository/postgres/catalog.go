package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

func (s *Store) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, last_update, type, tags, info, props FROM products WHERE id = $1`, id)
	return s.scanProduct(ctx, row)
}

func (s *Store) scanProduct(ctx context.Context, row pgx.Row) (*model.Product, error) {
	var p model.Product
	var info, props []byte
	if err := row.Scan(&p.ID, &p.LastUpdate, &p.Type, &p.Tags, &info, &props); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDbError("get product", err)
	}
	if err := json.Unmarshal(info, &p.Info); err != nil {
		return nil, shared.WrapDbError("decode product info", err)
	}
	if err := json.Unmarshal(props, &p.Props); err != nil {
		return nil, shared.WrapDbError("decode product props", err)
	}
	ids, err := s.variantIDsForProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.VariantIDs = ids
	return &p, nil
}

func (s *Store) variantIDsForProduct(ctx context.Context, productID int) ([]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM variants WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, shared.WrapDbError("list variant ids", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, shared.WrapDbError("scan variant id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) PutProduct(ctx context.Context, p *model.Product) error {
	info, err := json.Marshal(p.Info)
	if err != nil {
		return shared.WrapDbError("encode product info", err)
	}
	props, err := json.Marshal(p.Props)
	if err != nil {
		return shared.WrapDbError("encode product props", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO products (id, last_update, type, tags, info, props)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			last_update = EXCLUDED.last_update, type = EXCLUDED.type, tags = EXCLUDED.tags,
			info = EXCLUDED.info, props = EXCLUDED.props`,
		p.ID, p.LastUpdate, p.Type, p.Tags, info, props)
	if err != nil {
		return shared.WrapDbError("put product", err)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return shared.WrapDbError("delete product", err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]*model.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, shared.WrapDbError("list products", err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, shared.WrapDbError("scan product id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, shared.WrapDbError("list products", err)
	}

	out := make([]*model.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) GetVariant(ctx context.Context, id int) (*model.Variant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, product_id, price, compare_price, price_formatted, compare_price_formatted,
			deleted, media_id, info, options, props
		FROM variants WHERE id = $1`, id)
	return scanVariant(row)
}

func scanVariant(row pgx.Row) (*model.Variant, error) {
	var v model.Variant
	var info, options, props []byte
	if err := row.Scan(&v.ID, &v.ProductID, &v.Price, &v.ComparePrice, &v.PriceFormatted,
		&v.ComparePriceFormatted, &v.Deleted, &v.MediaID, &info, &options, &props); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDbError("get variant", err)
	}
	if err := json.Unmarshal(info, &v.Info); err != nil {
		return nil, shared.WrapDbError("decode variant info", err)
	}
	if err := json.Unmarshal(options, &v.Options); err != nil {
		return nil, shared.WrapDbError("decode variant options", err)
	}
	if err := json.Unmarshal(props, &v.Props); err != nil {
		return nil, shared.WrapDbError("decode variant props", err)
	}
	return &v, nil
}

func (s *Store) PutVariant(ctx context.Context, v *model.Variant) error {
	info, err := json.Marshal(v.Info)
	if err != nil {
		return shared.WrapDbError("encode variant info", err)
	}
	options, err := json.Marshal(v.Options)
	if err != nil {
		return shared.WrapDbError("encode variant options", err)
	}
	props, err := json.Marshal(v.Props)
	if err != nil {
		return shared.WrapDbError("encode variant props", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO variants (id, product_id, price, compare_price, price_formatted,
			compare_price_formatted, deleted, media_id, info, options, props)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id, price = EXCLUDED.price,
			compare_price = EXCLUDED.compare_price, price_formatted = EXCLUDED.price_formatted,
			compare_price_formatted = EXCLUDED.compare_price_formatted, deleted = EXCLUDED.deleted,
			media_id = EXCLUDED.media_id, info = EXCLUDED.info, options = EXCLUDED.options,
			props = EXCLUDED.props`,
		v.ID, v.ProductID, v.Price, v.ComparePrice, v.PriceFormatted, v.ComparePriceFormatted,
		v.Deleted, v.MediaID, info, options, props)
	if err != nil {
		return shared.WrapDbError("put variant", err)
	}
	return nil
}

func (s *Store) DeleteVariant(ctx context.Context, id int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM variants WHERE id = $1`, id); err != nil {
		return shared.WrapDbError("delete variant", err)
	}
	return nil
}

func (s *Store) ListVariants(ctx context.Context) ([]*model.Variant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, price, compare_price, price_formatted, compare_price_formatted,
			deleted, media_id, info, options, props
		FROM variants ORDER BY id`)
	if err != nil {
		return nil, shared.WrapDbError("list variants", err)
	}
	defer rows.Close()
	var out []*model.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetCollection(ctx context.Context, id int) (*model.Collection, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, last_update, media_id, info, product_ids FROM collections WHERE id = $1`, id)
	return scanCollection(row)
}

func scanCollection(row pgx.Row) (*model.Collection, error) {
	var c model.Collection
	var info, productIDs []byte
	if err := row.Scan(&c.ID, &c.LastUpdate, &c.MediaID, &info, &productIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDbError("get collection", err)
	}
	if err := json.Unmarshal(info, &c.Info); err != nil {
		return nil, shared.WrapDbError("decode collection info", err)
	}
	if err := json.Unmarshal(productIDs, &c.ProductIDs); err != nil {
		return nil, shared.WrapDbError("decode collection product ids", err)
	}
	return &c, nil
}

func (s *Store) PutCollection(ctx context.Context, c *model.Collection) error {
	info, err := json.Marshal(c.Info)
	if err != nil {
		return shared.WrapDbError("encode collection info", err)
	}
	productIDs, err := json.Marshal(c.ProductIDs)
	if err != nil {
		return shared.WrapDbError("encode collection product ids", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO collections (id, last_update, media_id, info, product_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			last_update = EXCLUDED.last_update, media_id = EXCLUDED.media_id,
			info = EXCLUDED.info, product_ids = EXCLUDED.product_ids`,
		c.ID, c.LastUpdate, c.MediaID, info, productIDs)
	if err != nil {
		return shared.WrapDbError("put collection", err)
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, id int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id); err != nil {
		return shared.WrapDbError("delete collection", err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, last_update, media_id, info, product_ids FROM collections ORDER BY id`)
	if err != nil {
		return nil, shared.WrapDbError("list collections", err)
	}
	defer rows.Close()
	var out []*model.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) PutMedia(ctx context.Context, m *model.Media) error {
	if m.ID == 0 {
		return s.pool.QueryRow(ctx,
			`INSERT INTO media (filename, last_update) VALUES ($1, $2) RETURNING id`,
			m.Filename, m.LastUpdate).Scan(&m.ID)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO media (id, filename, last_update) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET filename = EXCLUDED.filename, last_update = EXCLUDED.last_update`,
		m.ID, m.Filename, m.LastUpdate)
	if err != nil {
		return shared.WrapDbError("put media", err)
	}
	return nil
}

func (s *Store) GetMedia(ctx context.Context, id int) (*model.Media, error) {
	var m model.Media
	err := s.pool.QueryRow(ctx, `SELECT id, filename, last_update FROM media WHERE id = $1`, id).
		Scan(&m.ID, &m.Filename, &m.LastUpdate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDbError("get media", err)
	}
	return &m, nil
}
