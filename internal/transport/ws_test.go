package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/chatline-im/chatline/internal/chat"
	"github.com/chatline-im/chatline/internal/testutil"
)

// echoServer accepts one websocket client and echoes every frame back,
// standing in for the server-side fan-out.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if err := conn.Write(ctx, typ, data); err != nil {
				return
			}
		}
	}))
}

func TestWSEmitAndDispatch(t *testing.T) {
	testutil.SkipIfNoNetwork(t)

	srv := echoServer(t)
	defer srv.Close()

	ws := NewWS(WSConfig{URL: srv.URL, Token: "tok"})
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ws.Connect(ctx))

	received := make(chan chat.Message, 1)
	require.NoError(t, ws.Subscribe("sub", EventDirectMessage, func(msg chat.Message) {
		received <- msg
	}))

	require.NoError(t, ws.Emit(ctx, EventDirectMessage, directMsg(7)))

	select {
	case msg := <-received:
		require.Equal(t, int64(7), msg.ID)
		require.Equal(t, chat.KindDirect, msg.Kind)
		require.Equal(t, "hey", msg.Body)
	case <-ctx.Done():
		t.Fatal("timed out waiting for echoed push event")
	}
}

func TestWSDropsUnroutablePayloads(t *testing.T) {
	testutil.SkipIfNoNetwork(t)

	srv := echoServer(t)
	defer srv.Close()

	ws := NewWS(WSConfig{URL: srv.URL})
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ws.Connect(ctx))

	received := make(chan chat.Message, 2)
	require.NoError(t, ws.Subscribe("sub", EventDirectMessage, func(msg chat.Message) {
		received <- msg
	}))

	// A payload with no target must be dropped by the transport boundary.
	malformed, err := json.Marshal(Envelope{
		Event: EventDirectMessage,
		Data:  json.RawMessage(`{"id":99,"sender_id":1,"message":"?"}`),
	})
	require.NoError(t, err)

	ws.mu.Lock()
	conn := ws.conn
	ws.mu.Unlock()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, malformed))

	// A well-formed event arriving afterwards must still be delivered.
	require.NoError(t, ws.Emit(ctx, EventDirectMessage, directMsg(8)))

	select {
	case msg := <-received:
		require.Equal(t, int64(8), msg.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for push event")
	}
	require.Empty(t, received)
}

func TestWSEmitBeforeConnect(t *testing.T) {
	ws := NewWS(WSConfig{URL: "http://127.0.0.1:0"})
	err := ws.Emit(context.Background(), EventDirectMessage, directMsg(1))
	require.ErrorIs(t, err, ErrNotConnected)
}
