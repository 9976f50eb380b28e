package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a document in the MongoDB "users" collection.
type User struct {
	ID        primitive.ObjectID `json:"user_id"              bson:"_id,omitempty"`
	Email     string             `json:"email"                bson:"email"`
	Password  string             `json:"-"                    bson:"password"` // never serialize
	Name      string             `json:"name"                 bson:"name"`
	CreatedAt time.Time          `json:"created_at"           bson:"created_at"`
	LastLogin *time.Time         `json:"last_login,omitempty" bson:"last_login"`
}

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the JSON body for PUT /auth/profile.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}
