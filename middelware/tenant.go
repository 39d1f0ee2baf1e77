package middelware

import (
	"net/http"
	"strings"

	"fieldops-scheduler/models"

	"github.com/gin-gonic/gin"
)

const (
	TenantHeader = "X-Tenant-ID"
	ActorHeader  = "X-Actor-ID"

	tenantKey = "tenant_id"
	actorKey  = "actor_id"

	// DefaultActor is recorded when a request names no actor.
	DefaultActor = "api"
)

// TenantMiddleware scopes every request to the tenant named in X-Tenant-ID.
// Tenant resolution and authentication happen upstream; the header is trusted.
type TenantMiddleware struct{}

func NewTenantMiddleware() *TenantMiddleware {
	return &TenantMiddleware{}
}

// RequireTenant rejects requests without a tenant header.
func (m *TenantMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.GetHeader(TenantHeader))
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.APIResponse{
				Status:  "error",
				Code:    http.StatusBadRequest,
				Message: "Tenant required",
				Error: &models.APIError{
					Type:    models.ErrorTypeTenant,
					Details: TenantHeader + " header is required",
					Field:   TenantHeader,
				},
			})
			return
		}

		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = DefaultActor
		}

		c.Set(tenantKey, models.TenantID(tenant))
		c.Set(actorKey, actor)
		c.Next()
	}
}

func TenantFrom(c *gin.Context) models.TenantID {
	if v, ok := c.Get(tenantKey); ok {
		if t, ok := v.(models.TenantID); ok {
			return t
		}
	}
	return ""
}

func ActorFrom(c *gin.Context) string {
	if v := c.GetString(actorKey); v != "" {
		return v
	}
	return DefaultActor
}
