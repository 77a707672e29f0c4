// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

// Subscriptions maps topic names to the connections that asked for
// that topic's notifications. Handles are referenced, never owned:
// connection removal strips the handle from every topic.
//
// Mutated only by the event loop thread (directly or inside a
// Handler call), so there is no locking.
type Subscriptions struct {
	topics map[string][]ConnID
}

// NewSubscriptions returns an empty registry.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{topics: make(map[string][]ConnID)}
}

// Subscribe adds id to topic. Idempotent: a handle appears at most
// once per topic, and a duplicate subscribe is not an error.
func (s *Subscriptions) Subscribe(topic string, id ConnID) {
	for _, existing := range s.topics[topic] {
		if existing == id {
			return
		}
	}
	s.topics[topic] = append(s.topics[topic], id)
}

// Unsubscribe removes id from topic. Unknown topic or non-member id
// is a no-op.
func (s *Subscriptions) Unsubscribe(topic string, id ConnID) {
	subscribers := s.topics[topic]
	for i, existing := range subscribers {
		if existing == id {
			s.topics[topic] = append(subscribers[:i], subscribers[i+1:]...)
			if len(s.topics[topic]) == 0 {
				delete(s.topics, topic)
			}
			return
		}
	}
}

// UnsubscribeAll removes id from every topic. Called exactly once per
// connection, during pending-removal processing.
func (s *Subscriptions) UnsubscribeAll(id ConnID) {
	for topic := range s.topics {
		s.Unsubscribe(topic, id)
	}
}

// Subscribers returns the handles subscribed to topic. Delivery order
// across subscribers is unspecified; callers must not rely on it.
// The returned slice is the registry's own — callers must not mutate
// or retain it across Subscribe/Unsubscribe calls.
func (s *Subscriptions) Subscribers(topic string) []ConnID {
	return s.topics[topic]
}

// Counts returns the subscriber count per topic, for status
// reporting.
func (s *Subscriptions) Counts() map[string]int {
	if len(s.topics) == 0 {
		return nil
	}
	counts := make(map[string]int, len(s.topics))
	for topic, subscribers := range s.topics {
		counts[topic] = len(subscribers)
	}
	return counts
}
