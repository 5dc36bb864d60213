package planogram

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// updateProduct applies a fresh product payload fetched from the cloud: refreshes product
// fields, (re)downloads media on change, and upserts each variant. Mirrors
// original_source/logic/planogram.py's _product_updated_event_handler plus the product half of
// _apply_new_data.
func (s *Synchronizer) updateProduct(ctx context.Context, prod *model.Product, data map[string]any) error {
	lastUpdate, err := reqInt(data, "lastUpdate")
	if err != nil {
		return err
	}
	if int64(lastUpdate) <= prod.LastUpdate {
		s.log.Debug("product update is stale, ignoring", "product_id", prod.ID)
		return nil
	}
	typ, err := reqString(data, "type")
	if err != nil {
		return err
	}
	info, err := s.parseInfo(data)
	if err != nil {
		return err
	}
	props, err := s.parseProps(data)
	if err != nil {
		return err
	}
	variantsRaw, err := reqSlice(data, "variants")
	if err != nil {
		return err
	}

	prod.LastUpdate = int64(lastUpdate)
	prod.Type = typ
	if tags, ok := data["tags"].(string); ok {
		prod.Tags = tags
	}
	prod.Info = info
	prod.Props = props
	prod.VariantIDs = prod.VariantIDs[:0]

	for _, vRaw := range variantsRaw {
		vData, ok := vRaw.(map[string]any)
		if !ok {
			continue
		}
		v, err := s.upsertVariant(ctx, prod.ID, vData)
		if err != nil {
			s.log.Error("failed to update variant", "product_id", prod.ID, "error", err)
			continue
		}
		prod.VariantIDs = append(prod.VariantIDs, v.ID)
	}

	if err := s.repo.PutProduct(ctx, prod); err != nil {
		return err
	}
	s.cacheProductLocal(prod)
	s.log.Info("product updated", "product_id", prod.ID)
	return nil
}

func (s *Synchronizer) upsertVariant(ctx context.Context, productID int, data map[string]any) (*model.Variant, error) {
	id, err := reqInt(data, "id")
	if err != nil {
		return nil, err
	}
	priceStr, err := reqString(data, "price")
	if err != nil {
		return nil, err
	}
	price, perr := decimal.NewFromString(priceStr)
	if perr != nil {
		price = decimal.Zero
	}
	comparePrice := decimal.Zero
	if cp, ok := data["comparePrice"].(string); ok {
		if d, perr := decimal.NewFromString(cp); perr == nil {
			comparePrice = d
		}
	}
	info, err := s.parseInfo(data)
	if err != nil {
		return nil, err
	}
	props, err := s.parseProps(data)
	if err != nil {
		return nil, err
	}

	v, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = &model.Variant{ID: id, ProductID: productID}
	}
	v.Deleted = false
	v.Price = price
	v.ComparePrice = comparePrice
	v.PriceFormatted = priceStr
	v.ComparePriceFormatted = comparePrice.String()
	v.Info = info
	v.Props = props

	if mediaURL, ok := data["mediaUrl"].(string); ok && mediaURL != "" {
		needsDownload := v.Media == nil
		if err := s.maybeDownloadMedia(ctx, v.MediaID, &v.Media, mediaURL, needsDownload); err != nil {
			s.log.Error("failed to download variant media", "variant_id", id, "error", err)
		}
		if v.Media != nil {
			v.MediaID = &v.Media.ID
		}
	}

	if err := s.repo.PutVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Synchronizer) maybeDownloadMedia(ctx context.Context, currentID *int, media **model.Media, url string, force bool) error {
	if !force && *media != nil {
		return nil
	}
	filename, err := s.cloud.DownloadImage(ctx, url, s.cfg.ImageDir)
	if err != nil {
		return err
	}
	m := &model.Media{Filename: filename}
	if currentID != nil {
		m.ID = *currentID
	}
	if err := s.repo.PutMedia(ctx, m); err != nil {
		return err
	}
	*media = m
	return nil
}

// updateCollection refreshes a collection's info/media/product membership. Mirrors
// _collection_updated_event_handler.
func (s *Synchronizer) updateCollection(ctx context.Context, coll *model.Collection, data map[string]any) error {
	lastUpdate, err := reqInt(data, "lastUpdate")
	if err != nil {
		return err
	}
	if int64(lastUpdate) <= coll.LastUpdate {
		s.log.Debug("collection update is stale, ignoring", "collection_id", coll.ID)
		return nil
	}
	info, err := s.parseInfo(data)
	if err != nil {
		return err
	}
	productIDsRaw, err := reqSlice(data, "productIds")
	if err != nil {
		return err
	}

	coll.LastUpdate = int64(lastUpdate)
	coll.Info = info
	coll.ProductIDs = coll.ProductIDs[:0]
	for _, idRaw := range productIDsRaw {
		if f, ok := idRaw.(float64); ok {
			coll.ProductIDs = append(coll.ProductIDs, int(f))
		}
	}

	if mediaURL, ok := data["mediaUrl"].(string); ok && mediaURL != "" {
		needsDownload := coll.Media == nil
		if err := s.maybeDownloadMedia(ctx, coll.MediaID, &coll.Media, mediaURL, needsDownload); err != nil {
			s.log.Error("failed to download collection media", "collection_id", coll.ID, "error", err)
		}
		if coll.Media != nil {
			coll.MediaID = &coll.Media.ID
		}
	}

	if err := s.repo.PutCollection(ctx, coll); err != nil {
		return err
	}
	s.log.Info("collection updated", "collection_id", coll.ID)
	return nil
}

func (s *Synchronizer) parseInfo(data map[string]any) (map[string]model.LocalizedInfo, error) {
	raw, ok := data["info"].(map[string]any)
	if !ok {
		return map[string]model.LocalizedInfo{}, nil
	}
	out := make(map[string]model.LocalizedInfo, len(raw))
	for lang, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		desc, _ := entry["description"].(string)
		out[lang] = model.LocalizedInfo{Name: name, Description: desc}
	}
	return out, nil
}

func (s *Synchronizer) parseProps(data map[string]any) (map[string]model.ObjectProperty, error) {
	rawSlice, ok := data["properties"].([]any)
	if !ok {
		return map[string]model.ObjectProperty{}, nil
	}
	out := make(map[string]model.ObjectProperty, len(rawSlice))
	for _, r := range rawSlice {
		entry, ok := r.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		typ, _ := entry["type"].(string)
		val, _ := entry["value"].(string)
		if name == "" {
			continue
		}
		out[name] = model.ObjectProperty{Type: typ, Name: name, Value: val}
	}
	return out, nil
}

// handlePlanogramUpdated fetches the candidate planogram + accompanying catalog snapshot from
// the cloud, refreshes the UI model if it came along, and either applies the accompanying catalog
// data as a no-op refresh (staged layout is byte-for-byte identical to the current one) or stages
// the layout and validates it against outstanding reservations. Mirrors
// _planogram_updated_event_handler + _validate_new_planogram_against_reservations; posts
// PLANOGRAM_UPDATE_FAILED on any fatal error, matching the source's finally-block behavior.
func (s *Synchronizer) handlePlanogramUpdated(ctx context.Context) {
	data, err := s.cloud.Get(ctx, "planogram", nil)
	if err != nil {
		s.log.Error("failed to get new planogram data from the cloud", "error", err)
		s.bus.Post(event.Event{Type: event.TypePlanogramUpdateFailed})
		return
	}

	staged, catalog, err := s.parsePlanogramPayload(data)
	if err != nil {
		s.log.Error("received planogram data is malformed", "error", err)
		s.bus.Post(event.Event{Type: event.TypePlanogramUpdateFailed})
		return
	}

	if uiModel, ok := data["uiModel"].(map[string]any); ok {
		if err := s.RefreshUIModel(ctx, uiModel); err != nil {
			s.log.Error("failed to process ui model from new planogram data", "error", err)
		}
	}

	s.mu.Lock()
	current := s.current
	s.stagedCatalog = catalog
	s.mu.Unlock()

	if staged.Equal(current) {
		s.applyNewData(ctx)
		s.bus.Post(event.Event{Type: event.TypePlanogramIsUpToDate})
		return
	}

	reservations, err := s.repo.ListAllReservations(ctx)
	if err != nil {
		s.log.Error("db error listing reservations during planogram validation", "error", err)
		s.bus.Post(event.Event{Type: event.TypePlanogramUpdateFailed})
		return
	}
	s.mu.Lock()
	reason := validateAgainstReservations(current, staged, reservations)
	s.staged = staged
	s.mu.Unlock()

	s.bus.Post(event.Event{
		Type: event.TypeNewPlanogramAvailable,
		Body: event.NewPlanogramAvailableBody{Status: reason == event.ReasonNone, Reason: reason},
	})
}
