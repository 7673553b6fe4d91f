package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"tush00nka/bbbab_conversations/internal/pkg/events"
)

// Константы
const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4 * 1024
	maxSendChannelSize = 256
	defaultRoomSize    = 100
)

// OutEvent исходящее событие
type OutEvent struct {
	Type           string    `json:"type"`
	ConversationID uint      `json:"conversation_id"`
	UserID         uint      `json:"user_id,omitempty"`
	Data           any       `json:"data,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// HubStats статистика хаба
type HubStats struct {
	Rooms       int   `json:"rooms"`
	Connections int64 `json:"connections"`
	EventsSent  int64 `json:"events_sent"`
	Dropped     int64 `json:"dropped"`
}

var _ events.Publisher = (*Hub)(nil)

// Hub раздает события бесед подключенным участникам.
// Сам хаб членство не проверяет: клиента в комнату добавляет обработчик
// после проверки доступа, а исключенный участник отключается по событию
// member.removed.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[uint]*Room
	maxRoomSize int
	log         logrus.FieldLogger

	connections atomic.Int64
	sent        atomic.Int64
	dropped     atomic.Int64
}

// NewHub создает новый хаб
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		rooms:       make(map[uint]*Room),
		maxRoomSize: defaultRoomSize,
		log:         log,
	}
}

// Join добавляет клиента в комнату беседы. Предыдущее соединение того же
// пользователя закрывается.
func (h *Hub) Join(client *Client) error {
	h.mu.Lock()
	room, exists := h.rooms[client.ConversationID]
	if !exists {
		room = newRoom(client.ConversationID)
		h.rooms[client.ConversationID] = room
	}
	replaced, err := room.add(client, h.maxRoomSize)
	if err != nil && room.empty() {
		delete(h.rooms, client.ConversationID)
	}
	h.mu.Unlock()

	if err != nil {
		return err
	}
	if replaced != nil {
		replaced.Close()
	} else {
		h.connections.Inc()
	}
	return nil
}

// Leave убирает клиента из комнаты и удаляет пустую комнату
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[client.ConversationID]
	if !exists {
		return
	}
	if room.remove(client) {
		h.connections.Dec()
	}
	if room.empty() {
		delete(h.rooms, client.ConversationID)
	}
}

// Publish рассылает событие всем подключенным участникам беседы
func (h *Hub) Publish(_ context.Context, _ string, event events.Event) error {
	h.mu.RLock()
	room, exists := h.rooms[event.ConversationID]
	h.mu.RUnlock()
	if !exists {
		return nil
	}

	data, err := json.Marshal(OutEvent{
		Type:           event.Type,
		ConversationID: event.ConversationID,
		UserID:         event.UserID,
		Data:           event.Data,
		Timestamp:      event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("hub: failed to marshal event: %w", err)
	}

	delivered, dropped := room.broadcast(data)
	h.sent.Add(int64(delivered))
	h.dropped.Add(int64(dropped))
	if dropped > 0 {
		h.log.WithFields(logrus.Fields{
			"conversation_id": event.ConversationID,
			"type":            event.Type,
			"dropped":         dropped,
		}).Warn("slow clients missed an event")
	}

	switch event.Type {
	case events.TypeMemberRemoved:
		// исключенный участник больше не должен получать события
		if client := room.get(event.UserID); client != nil {
			client.CloseAfterFlush()
		}
	case events.TypeConversationDeleted:
		for _, client := range room.all() {
			client.CloseAfterFlush()
		}
	}
	return nil
}

// Close отключает всех клиентов
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, room := range h.rooms {
		for _, client := range room.all() {
			client.Close()
		}
		delete(h.rooms, id)
	}
	h.connections.Store(0)
}

// Stats возвращает статистику хаба
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	rooms := len(h.rooms)
	h.mu.RUnlock()

	return HubStats{
		Rooms:       rooms,
		Connections: h.connections.Load(),
		EventsSent:  h.sent.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Room клиенты одной беседы, не больше одного соединения на пользователя
type Room struct {
	conversationID uint
	mu             sync.RWMutex
	clients        map[uint]*Client
}

func newRoom(conversationID uint) *Room {
	return &Room{
		conversationID: conversationID,
		clients:        make(map[uint]*Client),
	}
}

func (r *Room) add(client *Client, maxSize int) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.clients[client.UserID]
	if existing == nil && len(r.clients) >= maxSize {
		return nil, ErrRoomFull
	}
	r.clients[client.UserID] = client
	return existing, nil
}

func (r *Room) remove(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, exists := r.clients[client.UserID]; exists && stored == client {
		delete(r.clients, client.UserID)
		return true
	}
	return false
}

func (r *Room) get(userID uint) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

func (r *Room) all() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *Room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0
}

func (r *Room) broadcast(data []byte) (delivered, dropped int) {
	for _, client := range r.all() {
		if client.SendRaw(data) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}
