package utils

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"backend/validation"
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ErrorResponse(c *gin.Context, message string, code int) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func SuccessResponse(c *gin.Context, message string, code int) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BlockedResponse renders a 422 with the failed rules split by severity, the
// shape the order/BOM screens expect when an operation is refused.
func BlockedResponse(c *gin.Context, operation string, results validation.Results) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"code":      http.StatusUnprocessableEntity,
		"message":   fmt.Sprintf("%s blocked by validation", operation),
		"blocks":    results.Blocks(),
		"warnings":  results.Warnings(),
		"rule_ids":  results.RuleIDs(),
		"can_force": !results.HasBlocks(),
	})
}

func jwtSecret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("prodflow-dev-secret")
}

// GenerateJWT creates a new JWT access token for the given email.
// Access tokens are short-lived (15 minutes).
func GenerateJWT(email string) (string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"type":  "access",
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GenerateRefreshToken creates a new JWT refresh token for the given email
// and session. Refresh tokens are long-lived (15 days) and tied to a single
// session/device.
func GenerateRefreshToken(email string, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"email":     email,
		"type":      "refresh",
		"sessionId": sessionID,
		"exp":       time.Now().Add(15 * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateJWT parses and validates a JWT string.
func ValidateJWT(tokenStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

func ValidatePassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}
