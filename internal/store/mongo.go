package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/karthikn/heritage-chat/backend/internal/models"
)

var (
	// ErrUnavailable is returned by every operation while the store has no
	// live database connection.
	ErrUnavailable = errors.New("store: database unavailable")

	// ErrDuplicateEmail is returned by CreateUser when the email is taken.
	ErrDuplicateEmail = errors.New("store: email already exists")

	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("store: not found")
)

// MongoStore handles user and message persistence in MongoDB.
//
// The zero value is usable but unavailable: every operation returns
// ErrUnavailable until Connect succeeds. A failed Connect at startup is
// not fatal to the process.
type MongoStore struct {
	client    *mongo.Client
	users     *mongo.Collection
	messages  *mongo.Collection
	connected bool
}

func NewMongoStore() *MongoStore {
	return &MongoStore{}
}

// Connect establishes the MongoDB connection and creates indexes.
func (s *MongoStore) Connect(ctx context.Context, uri, dbName string) error {
	if uri == "" {
		return errors.New("mongo connect: empty MONGO_URI")
	}
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	users := db.Collection("users")
	messages := db.Collection("messages")

	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("mongo index users.email: %w", err)
	}
	if _, err := messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	}); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("mongo index messages: %w", err)
	}

	s.client = client
	s.users = users
	s.messages = messages
	s.connected = true
	return nil
}

// Connected reports whether the store has a live connection.
func (s *MongoStore) Connected() bool {
	return s.connected
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) ready() error {
	if !s.connected {
		return ErrUnavailable
	}
	return nil
}

// ── Users ────────────────────────────────────────────────────────────

func (s *MongoStore) CreateUser(ctx context.Context, email, name, hashedPw string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	u := &models.User{
		Email:     strings.ToLower(email),
		Password:  hashedPw,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.users.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("mongo insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find user: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var u models.User
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find user: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) UpdateLastLogin(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"last_login": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("mongo update last_login: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdateUserName(ctx context.Context, id, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return fmt.Errorf("mongo update name: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and all messages they own.
func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if _, err := s.messages.DeleteMany(ctx, bson.M{"user_id": id}); err != nil {
		return fmt.Errorf("mongo delete messages: %w", err)
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Messages ─────────────────────────────────────────────────────────

func (s *MongoStore) SaveMessage(ctx context.Context, userID, role, content string, lat, lon *float64) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	msg := models.Message{
		UserID:    userID,
		Type:      role,
		Text:      content,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: time.Now().UTC(),
	}
	res, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mongo insert message: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (s *MongoStore) ListMessages(ctx context.Context, userID string, limit int64) ([]models.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(limit)
	cur, err := s.messages.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find messages: %w", err)
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("mongo decode messages: %w", err)
	}
	return msgs, nil
}

func (s *MongoStore) CountMessages(ctx context.Context, userID string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	n, err := s.messages.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("mongo count messages: %w", err)
	}
	return n, nil
}

func (s *MongoStore) ClearMessages(ctx context.Context, userID string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	res, err := s.messages.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("mongo clear messages: %w", err)
	}
	return res.DeletedCount, nil
}
