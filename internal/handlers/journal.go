package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emoai-app/emoai-backend/internal/database"
	"github.com/emoai-app/emoai-backend/internal/models"
)

const (
	// DefaultJournalLimit is how many recent entries a list request returns
	// when the caller does not ask for a specific limit.
	DefaultJournalLimit = 10
	// MaxJournalLimit caps the limit query parameter.
	MaxJournalLimit = 100
	// UntitledEntryTitle is the fallback title for entries saved without one.
	UntitledEntryTitle = "Untitled Entry"
)

type CreateJournalRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

type CreateJournalResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Journal *models.Journal `json:"journal,omitempty"`
}

type GetJournalsResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Journals []models.Journal `json:"journals"`
	Total    int64            `json:"total"`
}

// CreateJournal creates a journal entry for the authenticated user. The owner
// is always the session user; nothing in the body can change it. An empty
// title falls back to "Untitled Entry", and an empty mood is stored as null.
func CreateJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, CreateJournalResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	var req CreateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CreateJournalResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, CreateJournalResponse{
			Success: false,
			Message: "Content is required",
		})
		return
	}

	title := req.Title
	if title == "" {
		title = UntitledEntryTitle
	}
	var mood *string
	if req.Mood != "" {
		mood = &req.Mood
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	journal := models.Journal{
		ID:        primitive.NewObjectID(),
		UserID:    userID.String(),
		Title:     title,
		Content:   req.Content,
		Mood:      mood,
		CreatedAt: time.Now(),
	}

	if _, err := database.DB.Collection("journals").InsertOne(ctx, journal); err != nil {
		writeJSON(w, http.StatusInternalServerError, CreateJournalResponse{
			Success: false,
			Message: "Failed to create journal entry",
		})
		return
	}

	writeJSON(w, http.StatusCreated, CreateJournalResponse{
		Success: true,
		Message: "Journal entry saved",
		Journal: &journal,
	})
}

// journalLimit parses the limit query parameter, clamped to
// [1, MaxJournalLimit] with DefaultJournalLimit as the fallback.
func journalLimit(r *http.Request) int {
	limit := DefaultJournalLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > MaxJournalLimit {
		limit = MaxJournalLimit
	}
	return limit
}

// GetJournals returns the authenticated user's most recent entries, newest
// first. The limit defaults to 10.
func GetJournals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, GetJournalsResponse{
			Success:  false,
			Message:  "Authentication required",
			Journals: []models.Journal{},
		})
		return
	}

	limit := journalLimit(r)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"user_id": userID.String()}

	total, err := database.DB.Collection("journals").CountDocuments(ctx, filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, GetJournalsResponse{
			Success:  false,
			Message:  "Failed to fetch journal entries",
			Journals: []models.Journal{},
		})
		return
	}

	findOptions := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := database.DB.Collection("journals").Find(ctx, filter, findOptions)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, GetJournalsResponse{
			Success:  false,
			Message:  "Failed to fetch journal entries",
			Journals: []models.Journal{},
		})
		return
	}
	defer cursor.Close(ctx)

	journals := make([]models.Journal, 0, limit)
	if err = cursor.All(ctx, &journals); err != nil {
		writeJSON(w, http.StatusInternalServerError, GetJournalsResponse{
			Success:  false,
			Message:  "Failed to fetch journal entries",
			Journals: []models.Journal{},
		})
		return
	}

	writeJSON(w, http.StatusOK, GetJournalsResponse{
		Success:  true,
		Journals: journals,
		Total:    total,
	})
}
