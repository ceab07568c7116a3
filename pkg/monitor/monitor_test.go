package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesClients(t *testing.T) {
	b := NewBroadcaster()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.HandleWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The read loop registers the client before HandleWS returns, but give
	// the server a beat to settle.
	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.clients) == 1
	}, time.Second, 10*time.Millisecond)

	b.Broadcast(&RunState{Label: "batch", Total: 10, Completed: 4, Running: true})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var state RunState
	require.NoError(t, json.Unmarshal(data, &state))
	require.Equal(t, "batch", state.Label)
	require.Equal(t, 4, state.Completed)
	require.True(t, state.Running)
}

func TestSinkLifecycle(t *testing.T) {
	b := NewBroadcaster()
	s := NewSink(b, 10*time.Millisecond)

	s.Begin("batch", 8)
	for i := 1; i <= 8; i++ {
		s.Advance(i)
	}
	s.End()

	final := s.state(false)
	require.Equal(t, 8, final.Completed)
	require.False(t, final.Running)
}
