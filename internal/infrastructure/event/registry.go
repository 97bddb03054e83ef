package event

import (
	"slices"
	"sync"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// subscription is one handler and the event types it consumes.
// all is set for handlers that consume every event (store metrics).
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
	all     bool
}

func (s *subscription) wants(eventType string) bool {
	if s.all {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order. A handler is
// registered at most once, so a repeated Subscribe widens its event types
// instead of delivering the same OrderConfirmed twice.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []*subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event when none are given
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := r.find(handler)
	if sub == nil {
		sub = &subscription{handler: handler, types: make(map[string]struct{})}
		r.subs = append(r.subs, sub)
	}
	if len(eventTypes) == 0 {
		sub.all = true
		return
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
}

// Unregister drops every subscription of handler
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = slices.DeleteFunc(r.subs, func(s *subscription) bool {
		return s.handler == handler
	})
}

// HandlersFor returns the handlers consuming eventType in registration order
func (r *HandlerRegistry) HandlersFor(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.wants(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

// EventTypes lists the explicitly subscribed event types, sorted
func (r *HandlerRegistry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, s := range r.subs {
		for t := range s.types {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Len returns the number of subscribed handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *HandlerRegistry) find(handler shared.EventHandler) *subscription {
	for _, s := range r.subs {
		if s.handler == handler {
			return s
		}
	}
	return nil
}
