package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emoai-app/emoai-backend/internal/database"
	"github.com/emoai-app/emoai-backend/internal/services"
	"github.com/emoai-app/emoai-backend/pkg/utils"
)

const verificationTokenTTL = 24 * time.Hour

// SignupRequest is the JSON body for POST /api/auth/signup
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest is the JSON body for POST /api/auth/signin
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the common envelope for auth endpoints.
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user,omitempty"`
	Token   string                 `json:"token,omitempty"`
}

// Signup registers a new account. The account starts unverified; a
// verification token is stored and delivered out of band. No session is
// issued until the email is verified and the user signs in.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := utils.NormalizeEmail(req.Email)

	// Check if the email is already registered
	var existingEmail string
	err := database.PostgresDB.QueryRow("SELECT email FROM users WHERE LOWER(email) = $1", email).Scan(&existingEmail)
	if err == nil {
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	} else if err != sql.ErrNoRows {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	tx, err := database.PostgresDB.Begin()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	userID := uuid.New()
	now := time.Now()

	_, err = tx.Exec(`
		INSERT INTO users (id, email, password_hash, email_verified, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, userID, email, hashedPassword, now)
	if err != nil {
		// A concurrent signup can slip past the SELECT above; the unique
		// constraint on email is the authority.
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Profile row is created alongside the account; display name stays empty
	// until the user sets one.
	_, err = tx.Exec(`
		INSERT INTO profiles (id, user_id, display_name, created_at)
		VALUES (gen_random_uuid(), $1, NULL, $2)
	`, userID, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	verificationToken, err := generateVerificationToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create verification token")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO verification_tokens (id, user_id, token, expires_at, used, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, FALSE, $4)
	`, userID, verificationToken, now.Add(verificationTokenTTL), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create verification token")
		return
	}

	if err = tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Delivery is out of band; there is no mailer wired up, so log the token
	// for operators running without one.
	log.Printf("Verification token for %s: %s", email, verificationToken)

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created. Please check your email for a verification link.",
		User: map[string]interface{}{
			"id":         userID.String(),
			"email":      email,
			"created_at": now,
		},
	})
}

// VerifyEmail consumes a verification token and marks the account verified.
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	var tokenID, userID uuid.UUID
	var expiresAt time.Time
	var used bool
	err := database.PostgresDB.QueryRow(`
		SELECT id, user_id, expires_at, used
		FROM verification_tokens WHERE token = $1
	`, token).Scan(&tokenID, &userID, &expiresAt, &used)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusBadRequest, "Invalid verification token")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if used {
		writeError(w, http.StatusBadRequest, "Verification token has already been used")
		return
	}
	if time.Now().After(expiresAt) {
		writeError(w, http.StatusBadRequest, "Verification token has expired")
		return
	}

	tx, err := database.PostgresDB.Begin()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if _, err = tx.Exec("UPDATE users SET email_verified = TRUE WHERE id = $1", userID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to verify account")
		return
	}
	if _, err = tx.Exec("UPDATE verification_tokens SET used = TRUE WHERE id = $1", tokenID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to verify account")
		return
	}
	if err = tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Email verified. You can now sign in.",
	})
}

// Signin authenticates an account and issues a session token. Unverified
// accounts are rejected until the email is confirmed.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	email := utils.NormalizeEmail(req.Email)

	var userID uuid.UUID
	var passwordHash string
	var emailVerified bool
	var createdAt time.Time

	err := database.PostgresDB.QueryRow(`
		SELECT id, password_hash, email_verified, created_at
		FROM users WHERE LOWER(email) = $1
	`, email).Scan(&userID, &passwordHash, &emailVerified, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !emailVerified {
		writeError(w, http.StatusForbidden, "Please verify your email before signing in")
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User: map[string]interface{}{
			"id":         userID.String(),
			"email":      email,
			"created_at": createdAt,
		},
	})
}

// Signout invalidates the caller's session token. Always responds 200:
// a missing or already-dead token means the caller is signed out either way.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		if err := services.InvalidateSession(token); err != nil {
			log.Printf("Failed to invalidate session: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed out",
	})
}

// GetMe returns the account behind the caller's session token.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var email string
	var createdAt time.Time
	err := database.PostgresDB.QueryRow(`
		SELECT email, created_at FROM users WHERE id = $1
	`, userID).Scan(&email, &createdAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "OK",
		User: map[string]interface{}{
			"id":         userID.String(),
			"email":      email,
			"created_at": createdAt,
		},
	})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func generateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
