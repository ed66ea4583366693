package handlers

import (
	"backend/models"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// LoginHandler handles user authentication
// @Summary Login user
// @Description Authenticate user and return session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/login [post]
func LoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginData models.LoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		user, err := storage.GetUserByEmail(db, loginData.Email)
		if err != nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		newToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		refreshToken, err := utils.GenerateRefreshToken(user.Email, newToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
			return
		}

		// Access token expires in 15 minutes, refresh token in 15 days.
		session := &models.Session{
			UserID:                user.ID,
			SessionID:             newToken,
			HostName:              user.Email,
			IPAddress:             loginData.IP,
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(15 * time.Minute),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}

		if err := storage.SaveSession(db, session, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Message:      "Login successful",
			AccessToken:  newToken,
			RefreshToken: refreshToken,
			SessionID:    newToken,
		})

		log := models.ActivityLog{
			EventContext: "Login",
			EventName:    "Post",
			Description:  "User Logged In",
			UserName:     user.FirstName + " " + user.LastName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
		}
		_ = SaveActivityLog(db, log)
	}
}

// RefreshTokenHandler rotates the access token for a session using its
// refresh token
// @Summary Refresh access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/refresh [post]
func RefreshTokenHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload struct {
			SessionID    string `json:"session_id" binding:"required"`
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		stored, err := storage.GetRefreshTokenBySession(db, payload.SessionID)
		if err != nil || stored != payload.RefreshToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
			return
		}

		parsedToken, err := utils.ValidateJWT(payload.RefreshToken)
		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
			return
		}

		claims, ok := parsedToken.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		email, ok := claims["email"].(string)
		if !ok || email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email claim missing or invalid"})
			return
		}

		newToken, err := utils.GenerateJWT(email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Token refreshed",
			"access_token": newToken,
			"expires_in":   900,
		})
	}
}

// LogoutHandler deletes the calling session
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Router /api/logout [post]
func LogoutHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := sessionToken(c)
		if sessionID == "" {
			utils.ErrorResponse(c, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := storage.GetUserBySessionID(db, sessionID)
		if err != nil {
			utils.ErrorResponse(c, "Session not found", http.StatusUnauthorized)
			return
		}

		if err := storage.DeleteRefreshToken(db, sessionID); err != nil {
			utils.ErrorResponse(c, "Failed to clear refresh token", http.StatusInternalServerError)
			return
		}
		if err := storage.DeleteSessionByID(db, sessionID, user.ID); err != nil {
			utils.ErrorResponse(c, "Failed to delete session", http.StatusInternalServerError)
			return
		}

		utils.SuccessResponse(c, "Session deleted, user logged out", http.StatusOK)
	}
}

// DeleteSessionHandler deletes all sessions of a user
// @Summary Delete sessions
// @Tags Authentication
// @Param user_id path int true "User ID"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /api/session/{user_id} [delete]
func DeleteSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDInt, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		if err := storage.DeleteSession(db, userIDInt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Session deleted, user logged out"})
	}
}

// sessionToken extracts the session token from the Authorization header,
// tolerating an optional Bearer prefix.
func sessionToken(c *gin.Context) string {
	token := strings.TrimSpace(c.GetHeader("Authorization"))
	token = strings.TrimPrefix(token, "Bearer ")
	return strings.TrimSpace(token)
}
