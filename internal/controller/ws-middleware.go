package controller

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/pkg/ctxlogger"
	"github.com/Arionyxx/cinesync/pkg/wsrouter"
)

func (c controller) wsMessageIDMw(next wsrouter.RawHandlerFunc) wsrouter.RawHandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("message_id", uuid.NewString()))
		return next(ctx, conn, payload)
	}
}

func (c controller) wsLoggingMw(next wsrouter.RawHandlerFunc) wsrouter.RawHandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		c.logger.InfoContext(ctx, "message received",
			"type", wsrouter.GetMessageTypeFromCtx(ctx),
		)
		return next(ctx, conn, payload)
	}
}
