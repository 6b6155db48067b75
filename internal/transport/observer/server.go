// Package observer is the best-effort state broadcast channel: observers
// subscribe to a session identifier and receive unsolicited observation
// pushes. Absence or slowness of a subscriber never affects reset/step
// correctness; slow subscribers simply miss frames.
package observer

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gravitybench.ai/internal/protocol"
	"gravitybench.ai/internal/sim/task"
)

type subscriber struct {
	id        string
	sessionID string
	out       chan []byte
}

type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]*subscriber // subscriber id -> subscriber
}

func NewServer(logger *log.Logger) *Server {
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: make(map[string]*subscriber),
	}
}

// Publish pushes one observation to every subscriber of the session,
// dropping frames for subscribers whose queues are full.
func (s *Server) Publish(sessionID string, step int, done bool, obs task.Observation) {
	msg := protocol.ObsPush{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Step:            step,
		Done:            done,
		Observation:     obs,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Printf("observer: marshal obs: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.sessionID != sessionID {
			continue
		}
		select {
		case sub.out <- b:
		default:
			// Slow observer; drop the frame.
		}
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: first message must be SUBSCRIBE.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != protocol.TypeSubscribe {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"),
				time.Now().Add(time.Second))
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil ||
			sub.ProtocolVersion != protocol.Version || sub.SessionID == "" {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"),
				time.Now().Add(time.Second))
			return
		}

		entry := &subscriber{
			id:        uuid.NewString(),
			sessionID: sub.SessionID,
			out:       make(chan []byte, 64),
		}
		s.mu.Lock()
		s.subs[entry.id] = entry
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.subs, entry.id)
			s.mu.Unlock()
		}()

		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-entry.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: allow switching sessions with further SUBSCRIBEs.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeSubscribe {
				continue
			}
			var re protocol.SubscribeMsg
			if err := json.Unmarshal(msg, &re); err != nil || re.SessionID == "" {
				continue
			}
			s.mu.Lock()
			entry.sessionID = re.SessionID
			s.mu.Unlock()
		}
		close(done)
	}
}
