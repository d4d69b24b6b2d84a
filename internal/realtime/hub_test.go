package realtime

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	router := gin.New()
	hub.RegisterRoutes(router.Group("/ws"))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interviews/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(sessionID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscribers = %d, want %d", hub.Subscribers(sessionID), want)
}

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, srv, "s1")
	waitForSubscribers(t, hub, "s1", 1)

	hub.Publish("s1", "question:next", map[string]any{"questionId": "q1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if event.Event != "question:next" || event.SessionID != "s1" {
		t.Errorf("event = %+v", event)
	}
	payload, ok := event.Payload.(map[string]any)
	if !ok || payload["questionId"] != "q1" {
		t.Errorf("payload = %v", event.Payload)
	}
}

func TestHubPublishScopedToSession(t *testing.T) {
	hub, srv := newHubServer(t)
	other := dial(t, srv, "s2")
	waitForSubscribers(t, hub, "s2", 1)

	hub.Publish("s1", "interview:graded", nil)

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var event Event
	if err := other.ReadJSON(&event); err == nil {
		t.Fatalf("unexpected event for other session: %+v", event)
	}
}

func TestHubRemovesClosedConnections(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, srv, "s1")
	waitForSubscribers(t, hub, "s1", 1)

	conn.Close()
	waitForSubscribers(t, hub, "s1", 0)

	// Publishing to an empty session must not panic.
	hub.Publish("s1", "answer:submitted", nil)
}

func TestHubConcurrentPublishes(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, srv, "s1")
	waitForSubscribers(t, hub, "s1", 1)

	const publishers = 8
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Publish("s1", "answer:submitted", map[string]any{"n": n})
		}(i)
	}

	for i := 0; i < publishers; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("ReadJSON after %d events: %v", i, err)
		}
		if event.Event != "answer:submitted" {
			t.Errorf("event = %q", event.Event)
		}
	}
	wg.Wait()

	if hub.Subscribers("s1") != 1 {
		t.Errorf("subscribers = %d, want connection still live", hub.Subscribers("s1"))
	}
}

func TestHubMultipleSubscribers(t *testing.T) {
	hub, srv := newHubServer(t)
	first := dial(t, srv, "s1")
	second := dial(t, srv, "s1")
	waitForSubscribers(t, hub, "s1", 2)

	hub.Publish("s1", "interview:started", map[string]any{"totalQuestions": float64(15)})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if event.Event != "interview:started" {
			t.Errorf("event = %q", event.Event)
		}
	}
}
