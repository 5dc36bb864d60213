package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

const bearerPrefix = "Bearer "

// requireAdmin resolves the bearer token to a username, looks the user up in the repository and
// rejects the request unless AccessLevel is ADMIN. No token-signing/session scheme is specified
// by the repository contract, so the token is taken as the user's name directly — sufficient for
// a single-kiosk admin/customer split, not a general-purpose auth scheme (see DESIGN.md).
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if !strings.HasPrefix(authz, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		name := strings.TrimPrefix(authz, bearerPrefix)

		u, err := h.repo.GetUser(c.Request.Context(), name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		if u.AccessLevel != model.AccessLevelAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Set("adminUser", u.Name)
		c.Next()
	}
}

// applyPlanogram posts NEW_PLANOGRAM_APPLY, committing a staged planogram the synchronizer has
// already validated and is holding pending operator confirmation.
func (h *Handler) applyPlanogram(c *gin.Context) {
	h.postAdminSignal(c, event.TypeNewPlanogramApply)
}

// rejectPlanogram posts NEW_PLANOGRAM_REJECT, discarding the staged planogram.
func (h *Handler) rejectPlanogram(c *gin.Context) {
	h.postAdminSignal(c, event.TypeNewPlanogramReject)
}

func (h *Handler) postAdminSignal(c *gin.Context, t event.Type) {
	h.bus().Post(event.Event{Type: t})
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

type maintenanceRequest struct {
	Open bool `json:"open"`
}

// enterMaintenance drives the machine FSM's door_open latch directly, forcing MAINTENANCE (door
// open) or releasing it (door closed), the way a service technician's physical door-open switch
// would in normal operation.
func (h *Handler) enterMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	h.bus().Post(event.Event{Type: event.TypeDoorStateChanged, Body: event.DoorStateChangedBody{Open: req.Open}})
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}
