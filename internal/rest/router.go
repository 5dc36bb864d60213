// Package rest exposes the touchscreen/mobile-facing HTTP surface (SPEC_FULL §6) over C5's
// synchronous API, plus the admin/maintenance surface (C9). Grounded on the teacher's gin usage
// (jkilzi-assisted-migration-agent's Handler-struct-of-services pattern) paired with
// gin-contrib/zap request logging.
package rest

import (
	"github.com/gin-gonic/gin"
	ginzap "github.com/gin-contrib/zap"
	"go.uber.org/zap"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/cartengine"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/machine"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/planogram"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ports"
)

// Handler bundles the collaborators every HTTP route needs.
type Handler struct {
	log      logger.Logger
	eventbus *eventbus.Bus
	engine   *cartengine.Engine
	sync     *planogram.Synchronizer
	machine  *machine.Machine
	repo     ports.Repository
	cache    *planogram.RemoteCache
	waiter   *transactionWaiter
}

// New builds the Handler and the BEGIN_TRANSACTION_RESPONSE waiter, subscribing it to bus. cache
// may be a disabled (addr-less) RemoteCache when no Redis replica fronting is configured.
func New(log logger.Logger, bus *eventbus.Bus, engine *cartengine.Engine, sync *planogram.Synchronizer,
	m *machine.Machine, repo ports.Repository, cache *planogram.RemoteCache) *Handler {
	h := &Handler{
		log:      log.Named("rest"),
		eventbus: bus,
		engine:   engine,
		sync:     sync,
		machine:  m,
		repo:     repo,
		cache:    cache,
		waiter:   newTransactionWaiter(bus),
	}
	return h
}

func (h *Handler) bus() *eventbus.Bus { return h.eventbus }

// Router builds the gin engine with UI routes and the C9 admin group mounted. z is the
// underlying zap logger (request logging middleware needs the concrete type, not our Logger
// interface).
func (h *Handler) Router(z *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(z, "", true))
	r.Use(ginzap.RecoveryWithZap(z, true))

	r.GET("/catalog/product/:id", h.getProduct)
	r.GET("/ui-model", h.getUIModel)

	cart := r.Group("/cart")
	{
		cart.POST("/:transactionId/update", h.updateCart)
		cart.POST("/:transactionId/clear", h.clearCart)
		cart.POST("/:transactionId/prolong", h.prolongCart)
		cart.POST("/:transactionId/reserve", h.reserveCart)
		cart.POST("/:transactionId/dispense", h.dispenseCart)
		cart.POST("/:transactionId/checkout", h.beginTransaction)
	}

	admin := r.Group("/admin")
	admin.Use(h.requireAdmin())
	{
		admin.POST("/planogram/apply", h.applyPlanogram)
		admin.POST("/planogram/reject", h.rejectPlanogram)
		admin.POST("/maintenance", h.enterMaintenance)
	}

	return r
}
