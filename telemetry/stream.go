package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamEvent is one message on the live stream.
type StreamEvent struct {
	Type    string         `json:"type"` // "episode" or "window"
	Episode *EpisodeRecord `json:"episode,omitempty"`
	Window  *WindowStats   `json:"window,omitempty"`
}

// Streamer broadcasts telemetry events to WebSocket clients. Publishing
// never blocks the simulation: a full queue drops the event.
type Streamer struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader

	broadcast chan StreamEvent
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewStreamer creates a streamer and starts its broadcast loop.
func NewStreamer() *Streamer {
	s := &Streamer{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan StreamEvent, 256),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Handler returns the HTTP handler that upgrades connections onto the
// stream.
func (s *Streamer) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("stream_upgrade_failed", "error", err)
			return
		}
		s.mu.Lock()
		s.clients[conn] = true
		s.mu.Unlock()

		// Read pump. Clients send nothing meaningful, but draining reads
		// is what surfaces a clean close; without it a quiet run only
		// evicts the client when a broadcast write fails.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
			s.remove(conn)
		}()
	}
}

// remove evicts one client. Safe to call more than once per connection.
func (s *Streamer) remove(conn *websocket.Conn) {
	conn.Close()
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (s *Streamer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// PublishEpisode queues an episode event for broadcast.
func (s *Streamer) PublishEpisode(rec EpisodeRecord) {
	if s == nil {
		return
	}
	s.publish(StreamEvent{Type: "episode", Episode: &rec})
}

// PublishWindow queues a window stats event for broadcast.
func (s *Streamer) PublishWindow(stats WindowStats) {
	if s == nil {
		return
	}
	s.publish(StreamEvent{Type: "window", Window: &stats})
}

func (s *Streamer) publish(ev StreamEvent) {
	select {
	case s.broadcast <- ev:
	case <-s.done:
	default:
		// Queue full; the stream is best-effort.
	}
}

func (s *Streamer) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}

			s.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				conns = append(conns, conn)
			}
			s.mu.RUnlock()

			var failed []*websocket.Conn
			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					failed = append(failed, conn)
					conn.Close()
				}
			}

			if len(failed) > 0 {
				s.mu.Lock()
				for _, conn := range failed {
					delete(s.clients, conn)
				}
				s.mu.Unlock()
			}
		}
	}
}

// Close disconnects all clients and stops the broadcast loop.
func (s *Streamer) Close() error {
	if s == nil {
		return nil
	}
	close(s.done)

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Serve starts an HTTP server exposing the stream at /stream. It blocks
// until the server fails, so callers run it in a goroutine.
func (s *Streamer) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.Handler())
	return http.ListenAndServe(addr, mux)
}
