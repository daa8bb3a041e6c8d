package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/insyd/notify/backend/internal/metrics"
	"github.com/samber/lo"
)

// DefaultSendBuffer is the per-connection outbound queue length
const DefaultSendBuffer = 64

// Hub maps user ids to their live connections
type Hub struct {
	mu         sync.RWMutex
	users      map[uint]map[*Client]struct{}
	sendBuffer int
	logger     *slog.Logger
}

// NewHub creates an empty Hub. A non-positive sendBuffer uses DefaultSendBuffer.
func NewHub(sendBuffer int, logger *slog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		users:      make(map[uint]map[*Client]struct{}),
		sendBuffer: sendBuffer,
		logger:     logger.With("component", "realtime.Hub"),
	}
}

// Join adds the client to its user's connection set
func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[c.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.users[c.UserID] = conns
	}
	if _, joined := conns[c]; joined {
		return
	}
	conns[c] = struct{}{}
	h.updateGauges()
	h.logger.Debug("client joined", "user_id", c.UserID, "connections", len(conns))
}

// Leave removes the client and closes its outbound queue.
// Calling Leave more than once is harmless.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[c.UserID]
	if !ok {
		return
	}
	if _, joined := conns[c]; !joined {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.users, c.UserID)
	}
	h.updateGauges()
	h.logger.Debug("client left", "user_id", c.UserID, "connections", len(conns))
}

// SendToUser queues msg on every connection of userID and returns how
// many connections accepted it
func (h *Hub) SendToUser(userID uint, msg Message) int {
	payload, ok := h.encode(msg)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.users[userID], msg.Event, payload)
}

// SendToUsers queues msg once per connection of each distinct user
func (h *Hub) SendToUsers(userIDs []uint, msg Message) int {
	payload, ok := h.encode(msg)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, id := range lo.Uniq(userIDs) {
		delivered += h.deliver(h.users[id], msg.Event, payload)
	}
	return delivered
}

// Broadcast queues msg on every live connection
func (h *Hub) Broadcast(msg Message) int {
	payload, ok := h.encode(msg)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, conns := range h.users {
		delivered += h.deliver(conns, msg.Event, payload)
	}
	return delivered
}

// Connections returns the number of live connections of userID
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// OnlineUsers returns the ids of users with at least one connection
func (h *Hub) OnlineUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.users)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conns := range h.users {
		for c := range conns {
			close(c.send)
		}
		delete(h.users, id)
	}
	h.updateGauges()
}

// deliver must be called with h.mu held
func (h *Hub) deliver(conns map[*Client]struct{}, event string, payload []byte) int {
	delivered := 0
	for c := range conns {
		select {
		case c.send <- payload:
			delivered++
		default:
			metrics.PushesDropped.WithLabelValues(event).Inc()
			h.logger.Debug("push dropped, buffer full", "user_id", c.UserID, "event", event)
		}
	}
	if delivered > 0 {
		metrics.PushesDelivered.WithLabelValues(event).Add(float64(delivered))
	}
	return delivered
}

func (h *Hub) encode(msg Message) ([]byte, bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("cannot encode push", "event", msg.Event, "error", err)
		return nil, false
	}
	return payload, true
}

// updateGauges must be called with h.mu held for writing
func (h *Hub) updateGauges() {
	total := 0
	for _, conns := range h.users {
		total += len(conns)
	}
	metrics.LiveConnections.Set(float64(total))
	metrics.LiveUsers.Set(float64(len(h.users)))
}
