package planogram

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
)

// uiModelBannerImageKey is the field the UI model carries its rewritten banner image URL under;
// matches the touchscreen frontend's expected document shape.
const uiModelBannerImageKey = "bannerImageUrl"

// RefreshUIModel rebuilds the UI model document (the touchscreen's product carousel layout plus
// the brand banner) and persists it to disk. Mirrors _process_ui_model: the cloud-hosted banner
// image is mirrored locally the first time, with the local copy's URL substituted in so the
// kiosk never depends on the cloud being reachable to render its home screen.
func (s *Synchronizer) RefreshUIModel(ctx context.Context, modelDoc map[string]any) error {
	if bannerURL, ok := modelDoc["bannerImageSourceUrl"].(string); ok && bannerURL != "" {
		imageName, err := s.cloud.DownloadImage(ctx, bannerURL, s.cfg.ImageDir)
		if err != nil {
			return err
		}
		modelDoc[uiModelBannerImageKey] = s.cfg.LocalImageURLPrefix + imageName
	}

	s.mu.Lock()
	s.uiModel = modelDoc
	s.mu.Unlock()

	if err := s.writeJSONFile(s.cfg.UIModelFilename, modelDoc); err != nil {
		return err
	}
	s.log.Debug("ui model is saved to file")
	s.bus.Post(event.Event{Type: event.TypeUIModelUpdated})
	return nil
}

// CurrentUIModel returns the last-persisted UI model document, loading it from disk on first
// access if the process just started and no update notification has arrived yet.
func (s *Synchronizer) CurrentUIModel() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uiModel != nil {
		return s.uiModel
	}
	b, err := os.ReadFile(filepath.Join(s.cfg.DataDir, s.cfg.UIModelFilename))
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil
	}
	s.uiModel = doc
	return doc
}

// CurrentBrandInfo returns the last-persisted brand-info document (name/logo), used by the REST
// surface's GET /brand-info endpoint.
func (s *Synchronizer) CurrentBrandInfo() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brandInfo
}
