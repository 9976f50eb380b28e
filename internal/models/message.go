package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message roles. Messages are immutable once persisted; a user's chat
// history is the sequence of their messages ordered by timestamp.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message stored in MongoDB.
type Message struct {
	ID        primitive.ObjectID `json:"id"                  bson:"_id,omitempty"`
	UserID    string             `json:"-"                   bson:"user_id"`
	Type      string             `json:"type"                bson:"message_type"`
	Text      string             `json:"text"                bson:"content"`
	Latitude  *float64           `json:"latitude,omitempty"  bson:"latitude"`
	Longitude *float64           `json:"longitude,omitempty" bson:"longitude"`
	Timestamp time.Time          `json:"timestamp"           bson:"timestamp"`
}

// ChatRequest is the JSON body for POST /chat.
type ChatRequest struct {
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Language  string   `json:"language,omitempty"` // "en", "ta", "hi"
}

// HistoryResponse is the JSON body for GET /chat/history.
type HistoryResponse struct {
	Messages   []Message `json:"messages"`
	TotalCount int64     `json:"total_count"`
}

// ClearResponse is the JSON body for DELETE /chat/history.
type ClearResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deleted_count"`
}
