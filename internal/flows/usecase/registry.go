package usecase

import (
	"sync"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// HandlerRegistry maps protocol actions to business handlers. The ping action
// never reaches the registry; the exchange use case answers it directly.
//
// Registration happens during startup wiring, resolution on every request, so
// the map is guarded for safety rather than contention.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[domain.Action]FlowHandler
	fallback FlowHandler
}

// NewHandlerRegistry creates an empty HandlerRegistry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[domain.Action]FlowHandler),
	}
}

// Register binds a handler to an action, replacing any previous binding.
func (r *HandlerRegistry) Register(action domain.Action, handler FlowHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = handler
}

// RegisterDefault binds the fallback handler used for actions with no
// explicit binding, including handler-defined custom actions.
func (r *HandlerRegistry) RegisterDefault(handler FlowHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = handler
}

// Resolve returns the handler for the given action, falling back to the
// default handler. Returns nil when neither is registered.
func (r *HandlerRegistry) Resolve(action domain.Action) FlowHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handler, ok := r.handlers[action]; ok {
		return handler
	}
	return r.fallback
}
