package storage

import (
	"backend/models"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Pool sized for a planning tool, not a public API.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// SaveSession saves a new session for a user. If allowMultipleSessions is
// false, all existing sessions of the user are removed first so only one
// device stays logged in.
func SaveSession(db *sql.DB, session *models.Session, allowMultipleSessions bool) error {
	if !allowMultipleSessions {
		if _, err := db.Exec(`DELETE FROM session WHERE user_id = $1`, session.UserID); err != nil {
			return fmt.Errorf("failed to delete all user sessions: %v", err)
		}
	}

	insertQuery := `INSERT INTO session (user_id, session_id, host_name, ip_address, timestp, expires_at, refresh_token, refresh_token_expires_at)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(insertQuery, session.UserID, session.SessionID, session.HostName, session.IPAddress, session.Timestamp, session.ExpiresAt, session.RefreshToken, session.RefreshTokenExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert new session: %v", err)
	}
	return nil
}

// SaveRefreshToken stores a refresh token bound to one session, so each
// device rotates independently.
func SaveRefreshToken(db *sql.DB, userID int, sessionID string, refreshToken string, expiresAt time.Time) error {
	result, err := db.Exec(`UPDATE session SET refresh_token = $1, refresh_token_expires_at = $2 WHERE session_id = $3 AND user_id = $4`,
		refreshToken, expiresAt, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session not found for session_id: %s and user_id: %d", sessionID, userID)
	}
	return nil
}

// GetRefreshTokenBySession retrieves a refresh token for a specific session.
func GetRefreshTokenBySession(db *sql.DB, sessionID string) (string, error) {
	var refreshToken string
	err := db.QueryRow(`
		SELECT refresh_token FROM session
		WHERE session_id = $1 AND refresh_token_expires_at > NOW()`, sessionID).Scan(&refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token not found: %v", err)
	}
	return refreshToken, nil
}

// DeleteRefreshToken removes a refresh token for a session (for logout).
func DeleteRefreshToken(db *sql.DB, sessionID string) error {
	_, err := db.Exec(`UPDATE session SET refresh_token = NULL, refresh_token_expires_at = NULL WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %v", err)
	}
	return nil
}

func DeleteSession(db *sql.DB, userID int) error {
	_, err := db.Exec(`DELETE FROM session WHERE user_id = $1`, userID)
	return err
}

// DeleteSessionByID deletes a specific session by session_id.
func DeleteSessionByID(db *sql.DB, sessionID string, userID int) error {
	result, err := db.Exec(`DELETE FROM session WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session not found or already deleted")
	}
	return nil
}

// GetUserSessions returns all active sessions for a user.
func GetUserSessions(db *sql.DB, userID int) ([]models.Session, error) {
	rows, err := db.Query(`SELECT user_id, session_id, host_name, ip_address, timestp, expires_at
              FROM session WHERE user_id = $1 AND expires_at > NOW()
              ORDER BY timestp DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(&session.UserID, &session.SessionID, &session.HostName, &session.IPAddress, &session.Timestamp, &session.ExpiresAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func CleanupExpiredSessions(db *sql.DB) error {
	threshold := time.Now().Add(-24 * time.Hour)
	_, err := db.Exec(`DELETE FROM session WHERE expires_at < $1`, threshold)
	return err
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	var user models.User
	query := `SELECT id, email, password, first_name, last_name, suspended FROM users WHERE LOWER(email) = LOWER($1)`

	err := db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName, &user.Suspended)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to query user: %v", err)
	}
	return &user, nil
}

// GetUserBySessionID retrieves the user behind a session token. Suspended
// accounts are treated as not found.
func GetUserBySessionID(db *sql.DB, sessionID string) (*models.User, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name,
		       COALESCE(r.role_name, ''), u.suspended, u.created_at, u.updated_at
		FROM session s
		JOIN users u ON s.user_id = u.id
		LEFT JOIN roles r ON u.role_id = r.role_id
		WHERE s.session_id = $1 AND s.expires_at > NOW()
	`

	var user models.User
	err := db.QueryRow(query, sessionID).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.RoleName, &user.Suspended, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil || user.Suspended {
		if err == sql.ErrNoRows || user.Suspended {
			return nil, errors.New("user not found for the given session ID or account suspended")
		}
		return nil, err
	}
	return &user, nil
}
