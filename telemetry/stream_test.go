package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func dialStreamer(t *testing.T, s *Streamer) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	waitFor(t, "client registration", func() bool { return s.ClientCount() == 1 })
	return conn, srv
}

func TestStreamerDeliversEpisodes(t *testing.T) {
	s := NewStreamer()
	defer s.Close()

	conn, _ := dialStreamer(t, s)
	defer conn.Close()

	s.PublishEpisode(EpisodeRecord{Episode: 7, Nectar: 0.4})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev StreamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading stream event: %v", err)
	}
	if ev.Type != "episode" || ev.Episode == nil {
		t.Fatalf("event = %+v, want an episode event", ev)
	}
	if ev.Episode.Episode != 7 || ev.Episode.Nectar != 0.4 {
		t.Errorf("episode payload = %+v", *ev.Episode)
	}
}

// TestStreamerEvictsClosedClient checks that a clean client close is
// noticed on its own, without waiting for a broadcast write to fail.
func TestStreamerEvictsClosedClient(t *testing.T) {
	s := NewStreamer()
	defer s.Close()

	conn, _ := dialStreamer(t, s)

	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	conn.Close()

	waitFor(t, "client eviction", func() bool { return s.ClientCount() == 0 })
}

func TestStreamerNilSafe(t *testing.T) {
	var s *Streamer
	s.PublishEpisode(EpisodeRecord{Episode: 1})
	s.PublishWindow(WindowStats{})
	if err := s.Close(); err != nil {
		t.Errorf("nil Close() = %v, want nil", err)
	}
}
