package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
)

// DashboardHandler handles dashboard-related requests
type DashboardHandler struct {
	dashboard service.IDashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard service.IDashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	router.GET("/dashboard", g.auth, h.GetDashboard)
	router.GET("/admin/metrics", g.auth, g.admin, h.GetPlatformMetrics)
}

// GetDashboard returns the caller's home screen figures
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	d, err := h.dashboard.EaterDashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) GetPlatformMetrics(c *gin.Context) {
	m, err := h.dashboard.PlatformMetrics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
