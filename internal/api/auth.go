package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/almuerzo-cl/almuerzo/backend/internal/middleware"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// AuthHandler serves registration, login and the caller's profile
type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	auth := router.Group("/auth")
	auth.Use(g.authLimit)
	{
		auth.POST("/register", g.optional, h.Register)
		auth.POST("/login", h.Login)
	}

	profile := router.Group("/profile", g.auth)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

// Register creates an eater account. Admins may create owners and admins.
func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	allowPrivileged := c.GetString(middleware.ContextRole) == models.RoleAdmin
	user, profile, err := h.authService.Register(c.Request.Context(), &req, allowPrivileged)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.authService.GenerateToken(user, profile.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.AuthResponse{Token: token, User: *user, Profile: profile})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.AuthResponse{Token: token, User: *user})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, profile, err := h.authService.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
