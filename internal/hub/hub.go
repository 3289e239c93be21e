package hub

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"driftmarket/server/internal/models"
	"driftmarket/server/internal/utils"
)

// Event is one push record on the live channel, JSON-shaped as
// {"type": "...", "payload": ...}.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventTypeStatus  = "status"
	EventTypeMessage = "message"
	EventTypeOffer   = "offer"
)

// OfferPayload is the payload of an offer event.
type OfferPayload struct {
	ThreadID utils.SixID        `json:"threadId"`
	Offer    *models.OfferState `json:"offer"`
}

// NewMessageEvent wraps a committed message for broadcast.
func NewMessageEvent(msg *models.Message) Event {
	return Event{Type: EventTypeMessage, Payload: msg}
}

// NewOfferEvent wraps a committed offer change for broadcast.
func NewOfferEvent(threadID utils.SixID, offer *models.OfferState) Event {
	return Event{Type: EventTypeOffer, Payload: OfferPayload{ThreadID: threadID, Offer: offer}}
}

// Observer is one live connection's handle. Events arrive on a bounded
// buffered channel; the hub closes it on unsubscribe.
type Observer struct {
	id     uuid.UUID
	events chan Event
}

// Events is the receive side of the observer's queue. It is closed when the
// observer is unsubscribed (explicitly or after falling behind).
func (o *Observer) Events() <-chan Event {
	return o.events
}

// Hub owns the set of live observers and fans committed events out to them.
// It never blocks on a slow observer: a full per-observer buffer drops that
// observer from the set instead of stalling the rest.
type Hub struct {
	mu         sync.RWMutex
	observers  map[uuid.UUID]*Observer
	sendBuffer int
}

// DefaultSendBuffer is the per-observer queue depth used by New.
const DefaultSendBuffer = 16

// New creates a Hub with the given per-observer buffer (DefaultSendBuffer
// when non-positive).
func New(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		observers:  make(map[uuid.UUID]*Observer),
		sendBuffer: sendBuffer,
	}
}

// Subscribe registers a new observer and immediately queues a connection
// acknowledgement to it (and only it).
func (h *Hub) Subscribe() *Observer {
	obs := &Observer{
		id:     uuid.New(),
		events: make(chan Event, h.sendBuffer),
	}

	// Queue the ack while the channel is still private: once the observer is
	// in the map, a concurrent Publish may fill the buffer and drop it,
	// closing the channel.
	obs.events <- Event{Type: EventTypeStatus, Payload: "connected"}

	h.mu.Lock()
	h.observers[obs.id] = obs
	h.mu.Unlock()

	return obs
}

// Unsubscribe removes the observer and closes its channel. Idempotent; safe
// for an observer that was already dropped.
func (h *Hub) Unsubscribe(obs *Observer) {
	if obs == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.observers[obs.id]; ok {
		delete(h.observers, obs.id)
		close(obs.events)
	}
	h.mu.Unlock()
}

// Publish delivers a copy of the event to every observer subscribed at this
// moment, at most once each. Observers whose buffers are full are dropped
// rather than retried; delivery failures never reach the publisher's caller.
func (h *Hub) Publish(event Event) {
	var dropped []*Observer

	// Sends happen under the read lock so no concurrent Unsubscribe can
	// close a channel mid-send; the sends are non-blocking so the lock is
	// held only briefly.
	h.mu.RLock()
	for _, obs := range h.observers {
		select {
		case obs.events <- event:
		default:
			dropped = append(dropped, obs)
		}
	}
	h.mu.RUnlock()

	for _, obs := range dropped {
		log.Printf("hub: dropping observer %s (send buffer full)", obs.id)
		h.Unsubscribe(obs)
	}
}

// Count returns the number of live observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
