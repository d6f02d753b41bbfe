package flux

import "github.com/roach88/fluxury/internal/ir"

// HandlerFunc handles one action type: it receives the current state, the
// action payload and the wait function, and returns the next state.
type HandlerFunc func(state any, data any, waitFor WaitFunc) (any, error)

// Handlers maps action types to handlers.
type Handlers map[string]HandlerFunc

// Reducer turns the mapping into a Reducer. Actions without a handler,
// including the init action, leave the state unchanged.
func (h Handlers) Reducer() Reducer {
	return func(state any, action ir.Action, waitFor WaitFunc) (any, error) {
		fn, ok := h[action.Type]
		if !ok || fn == nil {
			return state, nil
		}
		return fn(state, action.Data, waitFor)
	}
}
