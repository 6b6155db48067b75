package observer

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gravitybench.ai/internal/protocol"
	"gravitybench.ai/internal/sim/task"
)

func dialTestServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	srv := NewServer(log.New(io.Discard, "", 0))
	ts := httptest.NewServer(http.HandlerFunc(srv.Handler()))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func TestSubscribeReceivesPush(t *testing.T) {
	srv, conn := dialTestServer(t)

	sub := protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: protocol.Version,
		SessionID:       "s1",
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("send subscribe: %v", err)
	}

	// The subscriber map is updated from the handler goroutine; give it a
	// moment, retrying the publish until the frame arrives.
	deadline := time.Now().Add(2 * time.Second)
	got := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			got <- msg
		}
	}()
	var msg []byte
	for msg == nil {
		if time.Now().After(deadline) {
			t.Fatalf("no push received")
		}
		srv.Publish("s1", 3, false, task.Observation{"isGrounded": true})
		select {
		case msg = <-got:
		case <-time.After(50 * time.Millisecond):
		}
	}

	var push protocol.ObsPush
	if err := json.Unmarshal(msg, &push); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if push.Type != protocol.TypeObs || push.SessionID != "s1" || push.Step != 3 {
		t.Fatalf("unexpected push: %+v", push)
	}
	if g, ok := push.Observation["isGrounded"].(bool); !ok || !g {
		t.Fatalf("observation not carried: %v", push.Observation)
	}
}

func TestOtherSessionNotDelivered(t *testing.T) {
	srv, conn := dialTestServer(t)

	sub := protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: protocol.Version,
		SessionID:       "mine",
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("send subscribe: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	srv.Publish("other", 1, false, task.Observation{})

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("received a push for a session we did not subscribe to")
	}
}

func TestHandshakeRequiresSubscribe(t *testing.T) {
	_, conn := dialTestServer(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"NOPE"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after bad handshake")
	}
}
