package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/karthikn/heritage-chat/backend/internal/llm"
	"github.com/karthikn/heritage-chat/backend/internal/models"
	"github.com/karthikn/heritage-chat/backend/internal/prompt"
)

// ErrProviderUnavailable means no completion provider is configured
// (missing API key); chat is degraded while history endpoints still work.
var ErrProviderUnavailable = errors.New("chat: completion provider not configured")

// MessageStore defines the persistence operations the pipeline consumes.
type MessageStore interface {
	SaveMessage(ctx context.Context, userID, role, content string, lat, lon *float64) (string, error)
	ListMessages(ctx context.Context, userID string, limit int64) ([]models.Message, error)
	CountMessages(ctx context.Context, userID string) (int64, error)
	ClearMessages(ctx context.Context, userID string) (int64, error)
}

// DeltaStream is a finite pull-based sequence of text deltas. io.EOF ends
// the sequence; any other error from Recv is terminal.
type DeltaStream interface {
	Recv() (string, error)
	Close() error
}

// CompletionStreamer opens a single-turn streaming completion.
type CompletionStreamer interface {
	StreamChat(ctx context.Context, systemPrompt string) (DeltaStream, error)
}

// NewStreamer adapts the Groq client to the CompletionStreamer interface.
func NewStreamer(c *llm.Client) CompletionStreamer {
	return groqStreamer{client: c}
}

type groqStreamer struct {
	client *llm.Client
}

func (g groqStreamer) StreamChat(ctx context.Context, systemPrompt string) (DeltaStream, error) {
	return g.client.StreamChat(ctx, systemPrompt)
}

// Service orchestrates the chat streaming pipeline.
type Service struct {
	store MessageStore
	llm   CompletionStreamer
}

// NewService wires the pipeline. streamer may be nil when no provider
// credential is configured.
func NewService(store MessageStore, streamer CompletionStreamer) *Service {
	return &Service{store: store, llm: streamer}
}

// Stream runs one chat request: persist the user message, build the
// prompt, stream the completion through sink one delta at a time, then
// persist the accumulated assistant reply.
//
// Persistence is best-effort relative to the live response: a failed save
// is logged and never aborts delivery. A provider error mid-stream ends
// the sequence early and the partial transcript is still saved. A sink
// error means the caller is gone; consumption stops and whatever has
// accumulated is saved.
func (s *Service) Stream(ctx context.Context, userID string, req models.ChatRequest, sink func(delta string) error) error {
	if userID == "" {
		return errors.New("chat: user id required")
	}
	if s.llm == nil {
		return ErrProviderUnavailable
	}

	if _, err := s.store.SaveMessage(ctx, userID, models.RoleUser, req.Message, req.Latitude, req.Longitude); err != nil {
		log.Printf("save user message: %v", err)
	}

	location := prompt.Location(req.Latitude, req.Longitude)
	system := prompt.BuildPrompt(req.Message, location, req.Language)

	stream, err := s.llm.StreamChat(ctx, system)
	if err != nil {
		return fmt.Errorf("open completion stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	var streamErr error
	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		full.WriteString(delta)
		if err := sink(delta); err != nil {
			log.Printf("chat delivery stopped for user %s: %v", userID, err)
			break
		}
	}

	// The request context is canceled once the caller disconnects; the
	// transcript must still reach the store, so the final save runs on a
	// detached context.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := s.store.SaveMessage(saveCtx, userID, models.RoleAssistant, full.String(), nil, nil); err != nil {
		log.Printf("save assistant message: %v", err)
	}

	if streamErr != nil {
		return fmt.Errorf("completion stream: %w", streamErr)
	}
	return nil
}
