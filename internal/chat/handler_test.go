package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikn/heritage-chat/backend/internal/middleware"
	"github.com/karthikn/heritage-chat/backend/internal/models"
)

func newTestRouter(st *fakeStore, streamer CompletionStreamer) http.Handler {
	h := NewHandler(st, NewService(st, streamer))
	r := chi.NewRouter()
	r.Route("/chat", func(r chi.Router) {
		r.Use(middleware.RequireUser(nil))
		r.Post("/", h.HandleChat)
		r.Get("/history", h.HandleHistory)
		r.Delete("/history", h.HandleClear)
	})
	return r
}

func TestHandleChatRejectsMissingIdentityBeforeStoreAccess(t *testing.T) {
	st := &fakeStore{}
	router := newTestRouter(st, &fakeStreamer{stream: &fakeStream{deltas: []string{"x"}}})

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, st.calls, "store must not be touched without identity")
}

func TestHandleChatStreamsSSE(t *testing.T) {
	st := &fakeStore{}
	streamer := &fakeStreamer{stream: &fakeStream{deltas: []string{"வணக்கம்", " கோவில்"}}}
	router := newTestRouter(st, streamer)

	body := `{"message":"temples near Madurai","language":"ta","latitude":9.92,"longitude":78.11}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	want := "data: {\"text\":\"வணக்கம்\"}\n\n" +
		"data: {\"text\":\" கோவில்\"}\n\n"
	assert.Equal(t, want, rec.Body.String())

	require.Len(t, st.saves, 2)
	assert.Equal(t, models.RoleUser, st.saves[0].role)
	assert.Equal(t, models.RoleAssistant, st.saves[1].role)
	assert.Equal(t, "வணக்கம் கோவில்", st.saves[1].content)
}

func TestHandleChatInvalidBody(t *testing.T) {
	st := &fakeStore{}
	router := newTestRouter(st, &fakeStreamer{stream: &fakeStream{}})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{not json`))
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, st.calls)
}

func TestHandleChatEmptyMessage(t *testing.T) {
	st := &fakeStore{}
	router := newTestRouter(st, &fakeStreamer{stream: &fakeStream{}})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`))
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, st.calls)
}

func TestHandleChatProviderUnavailable(t *testing.T) {
	st := &fakeStore{}
	router := newTestRouter(st, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHistory(t *testing.T) {
	now := time.Now().UTC()
	st := &fakeStore{
		msgs: []models.Message{
			{Type: models.RoleUser, Text: "hi", Timestamp: now},
			{Type: models.RoleAssistant, Text: "hello", Timestamp: now.Add(time.Second)},
		},
		count: 2,
	}
	router := newTestRouter(st, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.TotalCount)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Type)
	assert.Equal(t, "assistant", resp.Messages[1].Type)
}

func TestHandleHistoryEmpty(t *testing.T) {
	st := &fakeStore{}
	router := newTestRouter(st, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Empty history serializes as an empty array, not null.
	assert.Contains(t, rec.Body.String(), `"messages":[]`)
}

func TestHandleClear(t *testing.T) {
	st := &fakeStore{cleared: 7}
	router := newTestRouter(st, nil)

	req := httptest.NewRequest(http.MethodDelete, "/chat/history", nil)
	req.Header.Set("user-id", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.DeletedCount)
}
