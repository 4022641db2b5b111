package web

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guidoenr/fftvis/internal/app"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(":0", log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	go s.broadcastLoop(ctx)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		s.closeClients()
		ts.Close()
	})
	return s, ts
}

func getStatus(t *testing.T, url string) app.Snapshot {
	t.Helper()
	resp, err := http.Get(url + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var snap app.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return snap
}

func TestStatusBeforeAndAfterPublish(t *testing.T) {
	s, ts := newTestServer(t)

	if snap := getStatus(t, ts.URL); snap.State != "idle" || snap.Frame != 0 {
		t.Fatalf("unexpected initial status %+v", snap)
	}

	s.Publish(app.Snapshot{Frame: 7, State: "streaming", RollingAverage: 3.5, Beat: true, Bars: []float64{1, 2}})
	snap := getStatus(t, ts.URL)
	if snap.Frame != 7 || !snap.Beat || snap.RollingAverage != 3.5 || len(snap.Bars) != 2 {
		t.Fatalf("unexpected status %+v", snap)
	}
}

func TestWebSocketReceivesSnapshots(t *testing.T) {
	s, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.clientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Publish(app.Snapshot{Frame: 42, Status: "Artist - Title"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap app.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Frame != 42 || snap.Status != "Artist - Title" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	s := NewServer(":0", log.New(io.Discard, "", 0))
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Publish(app.Snapshot{Frame: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a broadcast loop")
	}
}

func TestIndexAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "<canvas") {
		t.Fatal("index page missing canvas")
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
