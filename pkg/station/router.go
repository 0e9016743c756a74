package station

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"groundlink/pkg/protocol"
)

// Handler consumes one push message.
type Handler func(msg *protocol.Inbound)

type subscriber struct {
	id uuid.UUID
	fn Handler
}

// Router fans push messages out to registered handlers by message
// type. Handlers run in registration order; a handler that panics is
// logged and does not block the rest.
type Router struct {
	mu   sync.Mutex
	log  *slog.Logger
	subs map[string][]subscriber
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		log:  logger,
		subs: make(map[string][]subscriber),
	}
}

// On registers a handler for a push type and returns its removal
// token. The same function may be registered more than once; each
// registration gets its own token.
func (r *Router) On(msgType string, fn Handler) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.subs[msgType] = append(r.subs[msgType], subscriber{id: id, fn: fn})
	r.mu.Unlock()
	return id
}

// Off removes the handler registered under the given token. Unknown
// tokens are ignored.
func (r *Router) Off(msgType string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.subs[msgType]
	for i, s := range list {
		if s.id == id {
			next := make([]subscriber, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(r.subs, msgType)
			} else {
				r.subs[msgType] = next
			}
			return
		}
	}
}

// Dispatch invokes every handler registered for the message type
// against a snapshot of the handler list, so a handler adding or
// removing subscribers mid-dispatch cannot affect the current round.
func (r *Router) Dispatch(msg *protocol.Inbound) {
	r.mu.Lock()
	list := make([]subscriber, len(r.subs[msg.Type]))
	copy(list, r.subs[msg.Type])
	r.mu.Unlock()

	for _, s := range list {
		r.invoke(s, msg)
	}
}

func (r *Router) invoke(s subscriber, msg *protocol.Inbound) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("push handler panicked", "type", msg.Type, "panic", rec)
		}
	}()
	s.fn(msg)
}

// Clear drops every subscription.
func (r *Router) Clear() {
	r.mu.Lock()
	r.subs = make(map[string][]subscriber)
	r.mu.Unlock()
}

// HandlerCount returns the number of handlers for a push type.
func (r *Router) HandlerCount(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[msgType])
}
