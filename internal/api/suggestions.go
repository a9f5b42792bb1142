package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// SuggestionHandler serves AI menu suggestions
type SuggestionHandler struct {
	suggestions service.ISuggestionService
}

func NewSuggestionHandler(suggestions service.ISuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

func (h *SuggestionHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	router.POST("/suggestions/menu", g.auth, h.SuggestMenu)
}

// SuggestMenu answers with up to four restaurant and dish picks. When the
// request carries no origin, lat/lon query parameters are used.
func (h *SuggestionHandler) SuggestMenu(c *gin.Context) {
	var req types.MenuSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Origin == nil {
		req.Origin = originQuery(c)
	}

	resp, err := h.suggestions.Suggest(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
