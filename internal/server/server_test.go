package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/hub"
	"github.com/soar/joyview/internal/settings"
	"github.com/soar/joyview/internal/view"
)

type fakePanel struct {
	cfg     config.Config
	actions chan settings.Action
}

func (p *fakePanel) Config() config.Config { return p.cfg }

func (p *fakePanel) HandleAction(a settings.Action) { p.actions <- a }

func newTestServer(t *testing.T) (*httptest.Server, *hub.Broadcaster, *fakePanel) {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	p := &fakePanel{cfg: cfg, actions: make(chan settings.Action, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	h := hub.NewHub()
	b := hub.NewBroadcaster(h)
	go h.Run(ctx)
	go b.Run(ctx)

	frontend := fstest.MapFS{"index.html": {Data: []byte("<html><body>  joyview  </body></html>")}}
	srv := httptest.NewServer(New(h, b, p, nil, frontend, "").Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, b, p
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestConfigEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/api/config")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got["topic"] != config.DefaultTopic || got["theme"] != config.DefaultTheme {
		t.Fatalf("config = %v", got)
	}
}

func TestThemeEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/theme")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "ojd-button") {
		t.Fatalf("theme: %d %.60s", resp.StatusCode, body)
	}
	if resp, _ := get(t, srv.URL+"/theme?id=nope"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown theme status = %d", resp.StatusCode)
	}
	resp, body = get(t, srv.URL+"/placeholder.svg")
	if resp.Header.Get("Content-Type") != "image/svg+xml" || !strings.HasPrefix(body, "<svg") {
		t.Fatalf("placeholder: %s %.40s", resp.Header.Get("Content-Type"), body)
	}
	resp, body = get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "joyview") {
		t.Fatalf("index: %d %q", resp.StatusCode, body)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) hub.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg hub.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketStateAndActions(t *testing.T) {
	srv, b, p := newTestServer(t)

	b.PublishSettings(settings.Build(p.cfg, settings.BuildOptions{}))
	b.PublishView(view.View{Placeholder: true, Buttons: []view.Button{}, Directionals: []view.Directional{}})

	// Redial until the broadcaster has taken both.
	deadline := time.Now().Add(2 * time.Second)
	var conn *websocket.Conn
	for conn == nil {
		if time.Now().After(deadline) {
			t.Fatal("initial state not received")
		}
		c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
		if err != nil {
			t.Fatal(err)
		}
		c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		var first, second hub.WSMessage
		if c.ReadJSON(&first) == nil && first.Type == hub.TypeSettings &&
			c.ReadJSON(&second) == nil && second.Type == hub.TypeFull && second.View != nil && second.View.Placeholder {
			conn = c
			continue
		}
		c.Close()
	}
	defer conn.Close()

	err := conn.WriteJSON(hub.ClientMessage{
		Type: hub.TypeSettingsAction,
		Action: map[string]any{
			"action": "perform-node-action",
			"payload": map[string]any{
				"id":   settings.ActionAddButton,
				"path": []string{settings.RootButtons},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case a := <-p.actions:
		if a.Kind != settings.PerformNodeAction || a.ID != settings.ActionAddButton {
			t.Fatalf("action = %+v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("action not routed to the panel")
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: hub.TypeSettingsAction, Action: map[string]any{"action": "bogus"}}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != hub.TypeRejected || msg.Error == "" {
		t.Fatalf("reply = %+v", msg)
	}
}
