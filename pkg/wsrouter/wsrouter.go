package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandlerFunc handles a decoded message payload of type T.
type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

// RawHandlerFunc handles a message payload before decoding.
type RawHandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type Middleware func(next RawHandlerFunc) RawHandlerFunc

// ErrorFunc is called when a handler returns an error. The connection keeps
// being served afterwards.
type ErrorFunc func(ctx context.Context, conn *websocket.Conn, err error)

type WSRouter struct {
	routes      map[string]RawHandlerFunc
	middlewares []Middleware
	onError     ErrorFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]RawHandlerFunc)}
}

// Use appends a middleware applied to every handler. Must be called before
// Handle.
func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// OnError sets the callback invoked when a handler returns an error.
func (r *WSRouter) OnError(f ErrorFunc) {
	r.onError = f
}

// Handle registers a typed handler for the given message type. A free
// function because Go methods cannot introduce type parameters.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	raw := RawHandlerFunc(func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("failed to decode %s payload: %w", messageType, err)
			}
		}

		return handler(ctx, conn, input)
	})

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		raw = r.middlewares[i](raw)
	}

	r.routes[messageType] = raw
}

// ServeConn reads messages from conn until it fails and dispatches them by
// type. Returns the read error that terminated the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]string{"error": "unknown message type"})
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			if r.onError != nil {
				r.onError(msgCtx, conn, err)
			}
		}
	}
}
