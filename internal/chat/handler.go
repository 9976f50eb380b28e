package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/karthikn/heritage-chat/backend/internal/models"
	"github.com/karthikn/heritage-chat/backend/internal/store"
)

// historyLimit caps how many messages GET /chat/history returns.
const historyLimit = 100

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds chat HTTP handlers.
type Handler struct {
	store MessageStore
	svc   *Service
}

func NewHandler(store MessageStore, svc *Service) *Handler {
	return &Handler{store: store, svc: svc}
}

type chatEvent struct {
	Text string `json:"text"`
}

// HandleChat streams the assistant reply as Server-Sent Events: one
// `data: {"text": ...}` line per provider delta, in delivery order.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sent := false
	err := h.svc.Stream(r.Context(), userID, req, func(delta string) error {
		payload, err := json.Marshal(chatEvent{Text: delta})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		sent = true
		return nil
	})
	if err != nil {
		if !sent {
			// Nothing delivered yet, a plain error response is still possible.
			if errors.Is(err, ErrProviderUnavailable) {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"error": "chat is unavailable: completion provider not configured",
				})
				return
			}
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": "completion provider request failed",
			})
			return
		}
		// Mid-stream failure: the event sequence just ends early.
		log.Printf("chat stream ended early for user %s: %v", userID, err)
	}
}

// HandleHistory returns the user's messages in ascending timestamp order.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	msgs, err := h.store.ListMessages(r.Context(), userID, historyLimit)
	if err != nil {
		writeJSON(w, storeErrStatus(err), map[string]string{"error": "failed to load history"})
		return
	}
	count, err := h.store.CountMessages(r.Context(), userID)
	if err != nil {
		writeJSON(w, storeErrStatus(err), map[string]string{"error": "failed to load history"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{Messages: msgs, TotalCount: count})
}

// HandleClear deletes all of the user's messages.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	deleted, err := h.store.ClearMessages(r.Context(), userID)
	if err != nil {
		writeJSON(w, storeErrStatus(err), map[string]string{"error": "failed to clear history"})
		return
	}
	writeJSON(w, http.StatusOK, models.ClearResponse{Success: true, DeletedCount: deleted})
}

func storeErrStatus(err error) int {
	if errors.Is(err, store.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
