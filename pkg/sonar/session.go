package sonar

import "sync"

// Session is the live client state. The volume path is always derived from
// the mode; only an adopted server-confirmed mode changes either.
type Session struct {
	mu         sync.RWMutex
	baseURL    string
	mode       Mode
	volumePath string
}

func newSession(baseURL string, mode Mode) *Session {
	s := &Session{baseURL: baseURL}
	s.adopt(mode)
	return s
}

// BaseURL returns the resolved Sonar web server address.
func (s *Session) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// VolumePath returns the volume settings prefix for the current mode.
func (s *Session) VolumePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volumePath
}

func (s *Session) snapshot() (string, Mode, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL, s.mode, s.volumePath
}

// adopt normalizes anything that is not streamer mode to classic.
func (s *Session) adopt(mode Mode) {
	mode = ModeFromBool(mode == ModeStreamer)
	s.mu.Lock()
	s.mode = mode
	s.volumePath = mode.VolumePath()
	s.mu.Unlock()
}
