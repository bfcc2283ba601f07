package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "github.com/saker-ai/sonar-bridge/internal/config"
	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

func TestServerLifecycle(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode("stream")
	}))
	defer upstream.Close()

	client, err := sonar.NewWithAddress(context.Background(), upstream.URL, sonar.Config{}, nil)
	if err != nil {
		t.Fatalf("NewWithAddress error: %v", err)
	}
	if client.Mode() != sonar.ModeStreamer {
		t.Fatalf("mode=%q, want %q", client.Mode(), sonar.ModeStreamer)
	}

	cfg := appconfig.Config{
		PresetsDir: t.TempDir(),
		Bridge:     appconfig.BridgeConfig{Addr: "127.0.0.1:0"},
	}
	srv := NewWithController(cfg, client, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("Run error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("server not ready")
	}
	if srv.Addr() == cfg.Bridge.Addr {
		t.Fatalf("Addr=%q, want bound port", srv.Addr())
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/mode")
	if err != nil {
		t.Fatalf("GET /api/mode error: %v", err)
	}
	var body struct {
		Mode     string `json:"mode"`
		Streamer bool   `json:"streamer"`
	}
	err = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body.Mode != "stream" || !body.Streamer {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}
}

func TestNilServer(t *testing.T) {
	var srv *Server
	if err := srv.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if srv.Addr() != "" {
		t.Fatalf("Addr=%q, want empty", srv.Addr())
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
}
