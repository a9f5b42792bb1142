package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

type CommunityHandler struct {
	community service.ICommunityService
}

func NewCommunityHandler(community service.ICommunityService) *CommunityHandler {
	return &CommunityHandler{community: community}
}

func (h *CommunityHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	router.POST("/community/suggestions", g.optional, g.writeLimit, h.CreateSuggestion) // anonymous allowed

	admin := router.Group("/admin/suggestions", g.auth, g.admin)
	{
		admin.GET("", h.ListSuggestions)
		admin.GET("/:id", h.GetSuggestion)
		admin.PUT("/:id/status", h.UpdateStatus)
	}
}

// CreateSuggestion accepts JSON, or a multipart form with an optional image.
func (h *CommunityHandler) CreateSuggestion(c *gin.Context) {
	var req types.CreateCommunitySuggestionRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	image, ok := formImage(c, "image", false)
	if !ok {
		return
	}

	suggestion, err := h.community.CreateSuggestion(c.Request.Context(), &req, optionalUser(c), image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suggestion)
}

func (h *CommunityHandler) ListSuggestions(c *gin.Context) {
	filters := &models.SuggestionFilters{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 0),
		Offset: intQuery(c, "offset", 0),
	}
	list, err := h.community.ListSuggestions(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) GetSuggestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	suggestion, err := h.community.GetSuggestion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *CommunityHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.UpdateSuggestionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.community.UpdateSuggestionStatus(c.Request.Context(), id, req.Status, req.AdminNotes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Suggestion status updated"})
}
