package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// RequireRestaurantManager lets the restaurant's owner or an admin through.
// The restaurant ID is read from the named path parameter.
func RequireRestaurantManager(db *gorm.DB, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if c.GetString(ContextRole) == models.RoleAdmin {
			c.Next()
			return
		}

		restaurantID, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
			return
		}

		var count int64
		err = db.WithContext(c.Request.Context()).Model(&models.Restaurant{}).
			Where("id = ? AND owner_id = ?", restaurantID, userID).
			Count(&count).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to verify restaurant access"})
			return
		}
		if count == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not manage this restaurant"})
			return
		}

		c.Next()
	}
}
