// Package planogram implements the Planogram Synchronizer (C4), grounded on
// original_source/logic/planogram.py. It subscribes to four inbound cloud topics (product,
// collection, brand, planogram), serializes all handling onto a single worker goroutine, and
// runs the two-stage stage/apply-or-reject commit protocol over the kiosk's inventory layout.
package planogram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ports"
)

// Config is the subset of PlanogramLogic.REQ_CFG_OPTIONS this component validates at startup.
type Config struct {
	LocalImageURLPrefix string
	BrandInfoFilename   string
	UIModelFilename     string
	DataDir             string
	ImageDir            string
}

func (c Config) validate(moduleName string) error {
	for name, v := range map[string]string{
		"local_image_url_prefix": c.LocalImageURLPrefix,
		"brand_info_filename":    c.BrandInfoFilename,
		"ui_model_filename":      c.UIModelFilename,
	} {
		if v == "" {
			return shared.NewConfigError(moduleName, name)
		}
	}
	return nil
}

// Synchronizer is the C4 planogram synchronizer.
type Synchronizer struct {
	log    logger.Logger
	bus    *eventbus.Bus
	cloud  ports.CloudClient
	iot    ports.IotClient
	repo   ports.Repository
	cfg    Config
	hotCache    *ristretto.Cache[string, any]
	remoteCache *RemoteCache

	mu                sync.Mutex // guards the fields below; only touched from the worker goroutine plus reads from IsPlanogramSet
	current           *model.Planogram
	staged            *model.Planogram
	stagedCatalog     stagedCatalog
	brandInfo         map[string]any
	uiModel           map[string]any
	planogramIsSet    bool

	in   chan workItem
	stop chan struct{}
	done chan struct{}
}

// New constructs the synchronizer. Call Start to load current inventory, subscribe to cloud
// topics and the bus, and begin the worker loop.
func New(log logger.Logger, bus *eventbus.Bus, cloud ports.CloudClient, iot ports.IotClient,
	repo ports.Repository, cfg Config) (*Synchronizer, error) {
	if err := cfg.validate("logic.plangrm"); err != nil {
		return nil, err
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("planogram: building hot cache: %w", err)
	}
	return &Synchronizer{
		log:       log.Named("logic.plangrm"),
		bus:       bus,
		cloud:     cloud,
		iot:       iot,
		repo:      repo,
		cfg:       cfg,
		hotCache:  cache,
		brandInfo: map[string]any{"lastUpdate": int64(0), "logoId": 0},
		in:        make(chan workItem, 256),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// SetRemoteCache attaches the Redis-backed cross-replica cache (spec.md's "multiple REST
// replicas share one kiosk" scenario). Optional: a synchronizer with no remote cache attached
// simply skips invalidation, leaving only the in-process ristretto hot cache.
func (s *Synchronizer) SetRemoteCache(c *RemoteCache) {
	s.remoteCache = c
}

// Start loads the current planogram from inventory, wires cloud topic subscriptions and bus
// subscriptions, and starts the worker goroutine.
func (s *Synchronizer) Start(ctx context.Context) error {
	slots, err := s.repo.ListInventorySlots(ctx)
	if err != nil {
		return shared.MapInfraErr("planogram.Start.ListInventorySlots", err)
	}
	s.current = model.NewPlanogram()
	for _, slot := range slots {
		s.current.Set(slot.Key.UnitID, slot.Key.TrayNumber, slot.Key.Location, model.PlanogramSlot{
			VariantID: slot.VariantID, Width: slot.Width, Depth: slot.Depth,
		})
	}
	s.planogramIsSet = len(slots) > 0

	if err := s.iot.Subscribe(ports.TopicProduct, s.onProductUpdate); err != nil {
		return err
	}
	if err := s.iot.Subscribe(ports.TopicCollection, s.onCollectionUpdate); err != nil {
		return err
	}
	if err := s.iot.Subscribe(ports.TopicBrand, s.onBrandUpdate); err != nil {
		return err
	}
	if err := s.iot.Subscribe(ports.TopicPlanogram, s.onPlanogramUpdate); err != nil {
		return err
	}

	s.bus.Subscribe(event.TypeNewPlanogramApply, func(event.Event) {
		s.in <- workItem{kind: workApplyPlanogram}
	})
	s.bus.Subscribe(event.TypeNewPlanogramReject, func(event.Event) {
		s.mu.Lock()
		s.staged = nil
		s.stagedCatalog = stagedCatalog{}
		s.mu.Unlock()
	})
	s.bus.Subscribe(event.TypeGetPlanogram, func(event.Event) {
		s.in <- workItem{kind: workGetPlanogram}
	})

	go s.run(ctx)
	s.log.Info("planogram synchronizer started")
	return nil
}

// Stop drains the worker to completion and exits.
func (s *Synchronizer) Stop() error {
	close(s.stop)
	<-s.done
	s.log.Info("planogram synchronizer stopped")
	return nil
}

// IsPlanogramSet reports whether the kiosk currently has any committed inventory layout;
// consumed by C6's AVAILABLE/UNAVAILABLE predicates.
func (s *Synchronizer) IsPlanogramSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planogramIsSet
}

// CurrentPlanogram returns a snapshot of the committed layout, for REST reads (GET_PLANOGRAM /
// admin surface) and for the cart engine's planogram-change relocation pass.
func (s *Synchronizer) CurrentPlanogram() *model.Planogram {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			if len(s.in) == 0 {
				return
			}
		case w := <-s.in:
			switch w.kind {
			case workProductUpdated:
				s.handleProductUpdated(ctx, w.productID)
			case workProductDeleted:
				s.handleProductDeleted(ctx, w.productID)
			case workCollectionUpdated:
				s.handleCollectionUpdated(ctx, w.collectionID)
			case workBrandUpdated:
				s.handleBrandUpdated(ctx, w.brandLastUpd)
			case workPlanogramUpdated:
				s.handlePlanogramUpdated(ctx)
			case workApplyPlanogram:
				s.applyNewData(ctx)
				s.applyNewPlanogram(ctx)
			case workGetPlanogram:
				s.handlePlanogramUpdated(ctx)
			}
		}
	}
}

// --- inbound cloud topic handlers: parse, classify, enqueue. Mirrors _on_product_update et al. ---

func (s *Synchronizer) onProductUpdate(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		s.log.Error("failed to process product update notification", "error", err)
		return
	}
	updType, _ := data["update_type"].(string)
	idF, ok := data["product_id"].(float64)
	if !ok || (updType != "update" && updType != "delete") {
		s.log.Warn("received product update notification is malformed")
		return
	}
	if updType == "update" {
		s.in <- workItem{kind: workProductUpdated, productID: int(idF)}
	} else {
		s.in <- workItem{kind: workProductDeleted, productID: int(idF)}
	}
}

func (s *Synchronizer) onCollectionUpdate(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		s.log.Error("failed to process collection update notification", "error", err)
		return
	}
	if updType, _ := data["update_type"].(string); updType != "update" {
		return
	}
	idF, ok := data["collection_id"].(float64)
	if !ok {
		s.log.Warn("received collection update notification is malformed")
		return
	}
	s.in <- workItem{kind: workCollectionUpdated, collectionID: int(idF)}
}

func (s *Synchronizer) onBrandUpdate(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		s.log.Error("failed to process brand update notification", "error", err)
		return
	}
	lastUpd, ok := data["lastUpdate"].(float64)
	if !ok {
		s.log.Warn("received product brand notification is malformed")
		return
	}
	s.in <- workItem{kind: workBrandUpdated, brandLastUpd: int64(lastUpd)}
}

func (s *Synchronizer) onPlanogramUpdate(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		s.log.Error("failed to process planogram update notification", "error", err)
		return
	}
	s.in <- workItem{kind: workPlanogramUpdated}
}

// --- product / collection / brand handlers ---

func (s *Synchronizer) handleProductUpdated(ctx context.Context, productID int) {
	prod, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		if !errors.Is(shared.MapInfraErr("GetProduct", err), shared.ErrNotFound) {
			s.log.Error("db error fetching product", "product_id", productID, "error", err)
		}
		return
	}
	if prod == nil {
		return
	}
	data, err := s.cloud.Get(ctx, "product", map[string]string{"productId": fmt.Sprint(productID), "deviceId": ""})
	if err != nil {
		s.log.Error("failed to get product data from the cloud", "product_id", productID, "error", err)
		return
	}
	if err := s.updateProduct(ctx, prod, data); err != nil {
		s.log.Error("received product data is malformed", "product_id", productID, "error", err)
		return
	}
	s.remoteCache.InvalidateProduct(ctx, productID)
}

func (s *Synchronizer) handleProductDeleted(ctx context.Context, productID int) {
	prod, err := s.repo.GetProduct(ctx, productID)
	if err != nil || prod == nil {
		return
	}
	for _, varID := range prod.VariantIDs {
		v, err := s.repo.GetVariant(ctx, varID)
		if err != nil || v == nil {
			continue
		}
		v.Deleted = true
		if err := s.repo.PutVariant(ctx, v); err != nil {
			s.log.Error("db error marking variant deleted", "variant_id", varID, "error", err)
			continue
		}
		s.log.Info("variant was set to deleted", "variant_id", varID)
	}
	s.remoteCache.InvalidateProduct(ctx, productID)
}

func (s *Synchronizer) handleCollectionUpdated(ctx context.Context, collectionID int) {
	coll, err := s.repo.GetCollection(ctx, collectionID)
	if err != nil || coll == nil {
		return
	}
	data, err := s.cloud.Get(ctx, "collection", map[string]string{"collectionId": fmt.Sprint(collectionID), "deviceId": ""})
	if err != nil {
		s.log.Error("failed to get collection data from the cloud", "collection_id", collectionID, "error", err)
		return
	}
	if err := s.updateCollection(ctx, coll, data); err != nil {
		s.log.Error("received collection data is malformed", "collection_id", collectionID, "error", err)
	}
}

func (s *Synchronizer) handleBrandUpdated(ctx context.Context, lastUpdate int64) {
	s.mu.Lock()
	currentLastUpdate, _ := s.brandInfo["lastUpdate"].(int64)
	s.mu.Unlock()

	if lastUpdate != 0 && lastUpdate <= currentLastUpdate {
		s.log.Debug("requested to update brand-info but it seems we already have the latest")
		return
	}
	upd, err := s.cloud.Get(ctx, "brand", nil)
	if err != nil {
		s.log.Error("failed to get brand-info from the cloud", "error", err)
		return
	}
	updLastUpdate := optInt64(upd, "lastUpdate", 0)
	if updLastUpdate <= currentLastUpdate {
		s.log.Info("retrieved brand-info but it seems we already have the latest")
		return
	}

	s.mu.Lock()
	currentLogoID := s.brandInfo["logoId"]
	currentLogoURL, _ := s.brandInfo["logoUrl"].(string)
	s.mu.Unlock()

	newLogoID := upd["logoId"]
	if newLogoID != currentLogoID {
		logoURL, _ := upd["logoUrl"].(string)
		imageName, err := s.cloud.DownloadImage(ctx, logoURL, s.cfg.ImageDir)
		if err != nil {
			s.log.Error("failed to download brand logo from the cloud", "error", err)
			return
		}
		upd["logoUrl"] = s.cfg.LocalImageURLPrefix + imageName
	} else {
		upd["logoUrl"] = currentLogoURL
	}

	s.mu.Lock()
	s.brandInfo = upd
	s.mu.Unlock()

	if err := s.writeJSONFile(s.cfg.BrandInfoFilename, upd); err != nil {
		s.log.Error("failed to save brand info", "error", err)
		return
	}
	s.log.Debug("brand info is saved to file")
	s.bus.Post(event.Event{Type: event.TypeBrandInfoUpdated})
}

func (s *Synchronizer) writeJSONFile(filename string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.cfg.DataDir, filename), b, 0o644)
}
