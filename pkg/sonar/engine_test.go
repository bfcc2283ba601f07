package sonar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
}

// fakeEngine serves the discovery endpoint over TLS and the Sonar web API over
// plain HTTP, recording every web request.
type fakeEngine struct {
	t *testing.T

	mu             sync.Mutex
	mode           string
	echoMode       string
	failStatus     int
	subApp         *SubApp
	requests       []recordedRequest
	discoveryCalls int

	discovery *httptest.Server
	web       *httptest.Server
}

func newFakeEngine(t *testing.T, mode string) *fakeEngine {
	t.Helper()
	e := &fakeEngine{t: t, mode: mode}
	e.web = httptest.NewServer(http.HandlerFunc(e.serveWeb))
	e.discovery = httptest.NewTLSServer(http.HandlerFunc(e.serveDiscovery))
	t.Cleanup(func() {
		e.web.Close()
		e.discovery.Close()
	})
	return e
}

func (e *fakeEngine) encryptedAddress() string {
	return strings.TrimPrefix(e.discovery.URL, "https://")
}

func (e *fakeEngine) writeCoreProps(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coreProps.json")
	data, err := json.Marshal(map[string]string{"ggEncryptedAddress": e.encryptedAddress()})
	if err != nil {
		t.Fatalf("marshal core props: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write core props: %v", err)
	}
	return path
}

func (e *fakeEngine) serveDiscovery(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.discoveryCalls++
	failStatus := e.failStatus
	subApp := SubApp{
		IsEnabled: true,
		IsReady:   true,
		IsRunning: true,
		Metadata:  SubAppMetadata{WebServerAddress: e.web.URL},
	}
	if e.subApp != nil {
		subApp = *e.subApp
	}
	e.mu.Unlock()

	if r.URL.Path != subAppsPath {
		http.NotFound(w, r)
		return
	}
	if failStatus != 0 {
		w.WriteHeader(failStatus)
		return
	}
	writeJSON(w, SubAppsResponse{SubApps: SubApps{Sonar: subApp}})
}

func (e *fakeEngine) serveWeb(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.requests = append(e.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
	failStatus := e.failStatus
	e.mu.Unlock()

	if failStatus != 0 {
		w.WriteHeader(failStatus)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == modePath:
		e.mu.Lock()
		mode := e.mode
		e.mu.Unlock()
		writeJSON(w, mode)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, modePath):
		e.mu.Lock()
		e.mode = strings.TrimPrefix(r.URL.Path, modePath)
		reply := e.mode
		if e.echoMode != "" {
			reply = e.echoMode
			e.mode = e.echoMode
		}
		e.mu.Unlock()
		writeJSON(w, reply)
	case r.Method == http.MethodGet && r.URL.Path == chatMixPath:
		writeJSON(w, map[string]any{"balance": 0.25, "state": "enabled"})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/volumeSettings/"):
		writeJSON(w, map[string]any{"masters": map[string]any{"classic": map[string]any{"volume": 0.8, "muted": false}}})
	case r.Method == http.MethodPut:
		writeJSON(w, map[string]any{"path": r.URL.Path, "ok": true})
	default:
		http.NotFound(w, r)
	}
}

func (e *fakeEngine) setFailStatus(code int) {
	e.mu.Lock()
	e.failStatus = code
	e.mu.Unlock()
}

func (e *fakeEngine) recorded() []recordedRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]recordedRequest, len(e.requests))
	copy(out, e.requests)
	return out
}

func (e *fakeEngine) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	reqs := e.recorded()
	if len(reqs) == 0 {
		t.Fatal("no requests recorded, want at least one")
	}
	return reqs[len(reqs)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
