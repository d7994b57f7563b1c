package calendar

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Event is pushed to websocket subscribers.
type Event struct {
	Type    string `json:"type"`
	Month   string `json:"month"`
	Payload any    `json:"payload,omitempty"`
}

const EventSlotChanged = "slot_changed"

type subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	months map[string]bool // empty means every month
}

// Hub fans out slot changes to connected calendar viewers.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		log: log.Named("calendar_hub"),
	}
}

// SlotChanged implements Notifier.
func (h *Hub) SlotChanged(date string, status SlotStatus) {
	month := date
	if len(date) >= len(monthLayout) {
		month = date[:len(monthLayout)]
	}
	h.broadcast(month, &Event{
		Type:    EventSlotChanged,
		Month:   month,
		Payload: map[string]any{"date": date, "status": status},
	})
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) broadcast(month string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if len(s.months) > 0 && !s.months[month] {
			continue
		}
		select {
		case s.send <- data:
		default:
			// slow subscriber, drop the event
		}
	}
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[s] = struct{}{}
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
}

// ServeHTTP upgrades the request and blocks until the client disconnects.
// ?month=YYYY-MM limits the initial subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &subscriber{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		months: make(map[string]bool),
	}
	if m := r.URL.Query().Get("month"); m != "" {
		s.months[m] = true
	}

	h.register(s)
	go h.writePump(s)
	h.readPump(s)
}

func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd struct {
			Type  string `json:"type"`
			Month string `json:"month"`
		}
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}

		switch cmd.Type {
		case "subscribe":
			h.mu.Lock()
			s.months[cmd.Month] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(s.months, cmd.Month)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
