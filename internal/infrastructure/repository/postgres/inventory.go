package postgres

import (
	"context"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

func (s *Store) ListInventorySlots(ctx context.Context) ([]*model.InventorySlot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT unit_id, tray, location, variant_id, width, depth, quantity
		 FROM inventory_slots ORDER BY unit_id, tray, location`)
	if err != nil {
		return nil, shared.WrapDbError("list inventory slots", err)
	}
	defer rows.Close()
	var out []*model.InventorySlot
	for rows.Next() {
		var slot model.InventorySlot
		if err := rows.Scan(&slot.Key.UnitID, &slot.Key.TrayNumber, &slot.Key.Location,
			&slot.VariantID, &slot.Width, &slot.Depth, &slot.Quantity); err != nil {
			return nil, shared.WrapDbError("scan inventory slot", err)
		}
		out = append(out, &slot)
	}
	return out, rows.Err()
}

func (s *Store) PutInventorySlot(ctx context.Context, slot *model.InventorySlot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO inventory_slots (unit_id, tray, location, variant_id, width, depth, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (unit_id, tray, location) DO UPDATE SET
			variant_id = EXCLUDED.variant_id, width = EXCLUDED.width, depth = EXCLUDED.depth,
			quantity = EXCLUDED.quantity`,
		slot.Key.UnitID, slot.Key.TrayNumber, slot.Key.Location, slot.VariantID, slot.Width,
		slot.Depth, slot.Quantity)
	if err != nil {
		return shared.WrapDbError("put inventory slot", err)
	}
	return nil
}

func (s *Store) DeleteInventorySlot(ctx context.Context, key model.SlotKey) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM inventory_slots WHERE unit_id = $1 AND tray = $2 AND location = $3`,
		key.UnitID, key.TrayNumber, key.Location)
	if err != nil {
		return shared.WrapDbError("delete inventory slot", err)
	}
	return nil
}
