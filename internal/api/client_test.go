package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatline-im/chatline/internal/chat"
)

func TestDirectHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/messages/42", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "sender_id": 42, "sender_name": "bob", "receiver_id": 10, "message": "hey", "created_at": "2026-03-01T12:00:00Z"},
			{"id": 2, "sender_id": 10, "sender_name": "alice", "receiver_id": 42, "message": "hi", "created_at": "2026-03-01T12:01:00Z"},
			// Unroutable record: no target at all. Must be dropped, not fatal.
			{"id": 3, "sender_id": 42, "message": "?"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	msgs, err := client.DirectHistory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, chat.KindDirect, msgs[0].Kind)
	require.Equal(t, "hey", msgs[0].Body)
}

func TestHistoryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	_, err := client.GroupHistory(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	_, err := client.DirectHistory(context.Background(), 42)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestSendDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/messages", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, float64(42), payload["receiverId"])
		require.Equal(t, "hi", payload["message"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "sender_name": "alice", "created_at": "2026-03-01T12:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	receipt, err := client.SendDirect(context.Background(), 42, "hi")
	require.NoError(t, err)
	require.Equal(t, int64(7), receipt.ID)
	require.Equal(t, "alice", receipt.SenderName)
	require.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), receipt.CreatedAt)
}

func TestSendGroupOmittedTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/groups/5/messages", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9, "sender_name": "alice"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	receipt, err := client.SendGroup(context.Background(), 5, 10, "hello group")
	require.NoError(t, err)
	require.Equal(t, int64(9), receipt.ID)
	require.True(t, receipt.CreatedAt.IsZero())
}

func TestMarkRead(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/mark-as-read", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	require.NoError(t, client.MarkRead(context.Background(), 42))
	require.Equal(t, float64(42), got["userId"])
}

func TestDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 42, "username": "bob"}})
		case "/api/groups":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 5, "name": "backend"}})
		case "/api/groups/5/members":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 42, "username": "bob"}, {"id": 10, "username": "alice"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")

	users, err := client.Users(context.Background())
	require.NoError(t, err)
	require.Equal(t, []User{{ID: 42, Username: "bob"}}, users)

	groups, err := client.Groups(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Group{{ID: 5, Name: "backend"}}, groups)

	members, err := client.GroupMembers(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, members, 2)
}
