package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Hub fans bridge events out to websocket subscribers. Subscribers only
// receive; anything they send is discarded.
type Hub struct {
	logger      *zap.Logger
	upgrader    websocket.Upgrader
	subscribers map[string]*subscriber
	mu          sync.Mutex
}

type subscriber struct {
	id     string
	conn   *websocket.Conn
	sendMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:      logger,
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the request and keeps the subscriber until it disconnects.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := &subscriber{id: uuid.NewString(), conn: conn}
	h.register(sub)
	defer h.unregister(sub.id)

	h.logger.Info("ws subscriber connected",
		zap.String("subscriber_id", sub.id),
		zap.String("remote_addr", r.RemoteAddr),
	)
	if err := sub.send(newEvent(EventHello, "", map[string]string{"subscriber_id": sub.id})); err != nil {
		h.logger.Debug("ws send failed", zap.String("subscriber_id", sub.id), zap.Error(err))
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Info("ws subscriber disconnected", zap.String("subscriber_id", sub.id))
			return
		}
	}
}

// Broadcast sends an event to every subscriber and returns it.
func (h *Hub) Broadcast(eventType string, requestID string, payload any) Event {
	event := newEvent(eventType, requestID, payload)

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(event); err != nil {
			h.logger.Debug("ws send failed", zap.String("subscriber_id", sub.id), zap.Error(err))
		}
	}
	return event
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.sendMu.Lock()
		_ = sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge shutting down"),
			time.Now().Add(time.Second))
		_ = sub.conn.Close()
		sub.sendMu.Unlock()
	}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.subscribers, id)
	h.mu.Unlock()
}

func (s *subscriber) send(event Event) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(event)
}

func newEvent(eventType string, requestID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Time:      time.Now().UTC(),
		Payload:   payload,
	}
}
