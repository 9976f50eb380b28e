package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			return deltas, nil
		}
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
}

func TestStreamChatDeliversDeltasInOrder(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "text/event-stream")
		// Metadata-only chunks (no content) must be filtered out.
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"\"}}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "llama-3.1-8b-instant", 5*time.Second)
	stream, err := c.StreamChat(context.Background(), "you are a guide")
	require.NoError(t, err)
	defer stream.Close()

	deltas, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world"}, deltas)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "llama-3.1-8b-instant", gotReq.Model)
	assert.True(t, gotReq.Stream)
	assert.Equal(t, 0.6, gotReq.Temperature)
	assert.Equal(t, 900, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "you are a guide", gotReq.Messages[0].Content)
}

func TestStreamChatNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", srv.URL, "llama-3.1-8b-instant", 5*time.Second)
	_, err := c.StreamChat(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestStreamRecvAfterDoneReturnsEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "m", 5*time.Second)
	stream, err := c.StreamChat(context.Background(), "prompt")
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStreamTransportErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler) // drop the connection mid-stream
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "m", 5*time.Second)
	stream, err := c.StreamChat(context.Background(), "prompt")
	require.NoError(t, err)
	defer stream.Close()

	delta, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", delta)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestStreamMalformedChunkIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {not json}\n\n")
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "m", 5*time.Second)
	stream, err := c.StreamChat(context.Background(), "prompt")
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)

	// Terminal: subsequent calls report end of stream.
	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}
