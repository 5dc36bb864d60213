package planogram

import (
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// workItem is the internal, single-threaded worker's unit of work. Mirrors
// original_source/logic/planogram.py's PlanogramEvent/PlanogramEventType enqueued onto the
// module's own condition-variable-guarded deque; here a buffered Go channel plays that role.
type workItem struct {
	kind workKind
	// payload fields, only the ones relevant to kind are populated.
	productID    int
	collectionID int
	brandLastUpd int64
}

type workKind int

const (
	workProductUpdated workKind = iota
	workProductDeleted
	workCollectionUpdated
	workBrandUpdated
	workPlanogramUpdated
	workApplyPlanogram
	workGetPlanogram
)

// stagedCatalog holds the parsed-but-not-yet-committed catalog payload that accompanies a
// planogram notification, staged until NEW_PLANOGRAM_APPLY/REJECT.
type stagedCatalog struct {
	collections []*model.Collection
	products    []*model.Product
	variants    []*model.Variant
}
