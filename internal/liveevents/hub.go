package liveevents

import (
	"errors"
	"strings"
	"sync"
)

// Event types published on an order stream.
const (
	TypeOrderConfirmed  = "order.confirmed"
	TypeProjectCreated  = "project.created"
	TypeDomainQualified = "domain.qualified"
	TypeRepairApplied   = "repair.applied"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

type OrderEvent struct {
	OrderID    string `json:"order_id"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Status     string `json:"status,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Hub fans order events out to SSE subscribers. Streams are keyed by order ID
// and keep a short replay buffer so late subscribers see recent activity.
type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []OrderEvent
	subs   map[uint64]chan OrderEvent
	nextID uint64
}

type Subscription struct {
	hub     *Hub
	orderID string
	id      uint64
	ch      chan OrderEvent
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(orderID string, event OrderEvent) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(orderID)
	if key == "" {
		return
	}
	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	stream.buffer = append(stream.buffer, event)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan OrderEvent, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribe(orderID string) (*Subscription, []OrderEvent, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	key := strings.TrimSpace(orderID)
	if key == "" {
		return nil, nil, errors.New("invalid_order_id")
	}

	stream := h.ensureStream(key)
	stream.mu.Lock()
	if stream.subs == nil {
		stream.subs = make(map[uint64]chan OrderEvent)
	}
	id := stream.nextID
	stream.nextID++
	ch := make(chan OrderEvent, h.subscriberBuffer)
	stream.subs[id] = ch
	buffer := append([]OrderEvent(nil), stream.buffer...)
	stream.mu.Unlock()

	return &Subscription{
		hub:     h,
		orderID: key,
		id:      id,
		ch:      ch,
	}, buffer, nil
}

func (h *Hub) ensureStream(orderID string) *stream {
	h.mu.RLock()
	current := h.streams[orderID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[orderID]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan OrderEvent)}
		h.streams[orderID] = current
	}
	return current
}

func (h *Hub) unsubscribe(orderID string, id uint64) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(orderID)
	if key == "" {
		return
	}

	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	delete(stream.subs, id)
	remaining := len(stream.subs)
	stream.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.streams[key]
	if current != stream {
		h.mu.Unlock()
		return
	}
	stream.mu.Lock()
	empty := len(stream.subs) == 0
	stream.mu.Unlock()
	if empty {
		delete(h.streams, key)
	}
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan OrderEvent {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.orderID, s.id)
	})
}
