package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/emoai-app/emoai-backend/internal/database"
)

// ProfileResponse is the envelope for GET /api/profile
type ProfileResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Profile map[string]interface{} `json:"profile,omitempty"`
}

// GetProfile returns the profile row for the authenticated user. Absence of a
// row is not an error; the profile comes back null.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var profileID uuid.UUID
	var displayName sql.NullString
	var createdAt time.Time
	err := database.PostgresDB.QueryRow(`
		SELECT id, display_name, created_at FROM profiles WHERE user_id = $1
	`, userID).Scan(&profileID, &displayName, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusOK, ProfileResponse{Success: true})
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var name interface{}
	if displayName.Valid {
		name = displayName.String
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Profile: map[string]interface{}{
			"id":           profileID.String(),
			"user_id":      userID.String(),
			"display_name": name,
			"created_at":   createdAt,
		},
	})
}
