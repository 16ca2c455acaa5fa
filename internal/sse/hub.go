// Package sse fans job progress out to Server-Sent Events subscribers.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	subscriberBuffer = 16
	maxHistory       = 128
)

// Event is one message on a topic. Final marks the last event of a topic.
type Event struct {
	ID    int
	Name  string
	Data  []byte
	Final bool
}

// Hub manages topic subscriptions. All topic state is owned by the Run loop;
// the other methods talk to it over channels.
//
// Each topic keeps a bounded history so late subscribers (or reconnects with
// Last-Event-ID) can catch up. Histories expire after the configured TTL.
type Hub struct {
	history *cache.Cache
	topics  map[string]map[chan Event]struct{}

	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan topicEvent
	stopped     chan struct{}
}

type subscription struct {
	topic  string
	ch     chan Event
	replay chan []Event
}

// topicLog is the cached state of a topic. lastID keeps counting after the
// oldest events are trimmed.
type topicLog struct {
	lastID int
	events []Event
}

type topicEvent struct {
	topic string
	event Event
}

func NewHub(historyTTL time.Duration) *Hub {
	if historyTTL <= 0 {
		historyTTL = time.Hour
	}
	return &Hub{
		history:     cache.New(historyTTL, historyTTL),
		topics:      make(map[string]map[chan Event]struct{}),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan topicEvent),
		stopped:     make(chan struct{}),
	}
}

// Run processes subscriptions and publications until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-h.subscribe:
			subs, ok := h.topics[s.topic]
			if !ok {
				subs = make(map[chan Event]struct{})
				h.topics[s.topic] = subs
			}
			subs[s.ch] = struct{}{}
			s.replay <- h.historyOf(s.topic)
		case s := <-h.unsubscribe:
			if subs, ok := h.topics[s.topic]; ok {
				delete(subs, s.ch)
				if len(subs) == 0 {
					delete(h.topics, s.topic)
				}
			}
		case te := <-h.publish:
			tl := h.logOf(te.topic)
			if n := len(tl.events); n > 0 && tl.events[n-1].Final {
				continue
			}
			tl.lastID++
			te.event.ID = tl.lastID
			if len(tl.events) >= maxHistory {
				tl.events = tl.events[len(tl.events)-maxHistory+1:]
			}
			tl.events = append(tl.events, te.event)
			h.history.SetDefault(te.topic, tl)
			for ch := range h.topics[te.topic] {
				select {
				case ch <- te.event:
				default:
					// slow subscriber; it can resync with Last-Event-ID
				}
			}
		}
	}
}

func (h *Hub) logOf(topic string) topicLog {
	if v, ok := h.history.Get(topic); ok {
		tl := v.(topicLog)
		tl.events = tl.events[:len(tl.events):len(tl.events)]
		return tl
	}
	return topicLog{}
}

func (h *Hub) historyOf(topic string) []Event {
	return h.logOf(topic).events
}

// Publish encodes payload as JSON and sends it to every subscriber of topic.
// It returns once the event is part of the topic history.
func (h *Hub) Publish(topic, name string, payload any) error {
	return h.send(topic, name, payload, false)
}

// Close publishes the final event of topic. Later publications are dropped.
func (h *Hub) Close(topic, name string, payload any) error {
	return h.send(topic, name, payload, true)
}

func (h *Hub) send(topic, name string, payload any, final bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: encode %s event: %w", name, err)
	}
	select {
	case h.publish <- topicEvent{topic: topic, event: Event{Name: name, Data: data, Final: final}}:
		return nil
	case <-h.stopped:
		return errHubStopped
	}
}

// Subscribe registers a new subscriber and returns the topic history so far,
// the live channel, and a function that ends the subscription.
func (h *Hub) Subscribe(topic string) ([]Event, <-chan Event, func(), error) {
	s := subscription{topic: topic, ch: make(chan Event, subscriberBuffer), replay: make(chan []Event, 1)}
	select {
	case h.subscribe <- s:
	case <-h.stopped:
		return nil, nil, nil, errHubStopped
	}
	replay := <-s.replay
	cancel := func() {
		select {
		case h.unsubscribe <- s:
		case <-h.stopped:
		}
	}
	return replay, s.ch, cancel, nil
}

var errHubStopped = errors.New("sse: hub stopped")
