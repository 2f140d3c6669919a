package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.Handler) *HTTPAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPAPI(srv.URL, "test-token", 2*time.Second, 500*time.Millisecond)
}

func ok(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "data": data})
}

func TestHTTPAPIListConversation(t *testing.T) {
	var gotAuth string
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/api/messages/peer-1", r.URL.Path)
		ok(w, []map[string]any{{"id": "m1", "senderId": "peer-1", "receiverId": "me"}})
	}))

	msgs, err := api.ListConversation(context.Background(), "peer-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestHTTPAPIMarkSeenPostsIDs(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/messages/mark-seen", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"m1", "m2"}, body["messageIds"])
		ok(w, map[string]any{"success": true, "updatedCount": 2})
	}))

	count, err := api.MarkSeen(context.Background(), []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHTTPAPIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		ok(w, []any{})
	}))

	_, err := api.ListConversation(context.Background(), "peer-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestHTTPAPIDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "no such user"})
	}))

	_, err := api.ListConversation(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
