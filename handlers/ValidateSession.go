package handlers

import (
	"backend/storage"
	"backend/utils"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ValidateSession checks a session token against both the JWT signature and
// the session table
// @Summary Validate session
// @Tags Authentication
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/validate-session [post]
func ValidateSession(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Authorization header"})
			return
		}

		parsedToken, err := utils.ValidateJWT(token)
		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := parsedToken.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		exp, ok := claims["exp"].(float64)
		if !ok || time.Now().Unix() > int64(exp) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			return
		}

		user, err := storage.GetUserBySessionID(db, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found or expired"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Session valid",
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"role":  user.RoleName,
			},
		})
	}
}

// RequireSession is route-group middleware rejecting requests whose session
// token does not resolve to an active user.
func RequireSession(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}

		user, err := storage.GetUserBySessionID(db, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session not found or expired"})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_email", user.Email)
		c.Next()
	}
}
