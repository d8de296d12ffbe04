package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/service/room"
	"github.com/Arionyxx/cinesync/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsMessageIDMw)
	mux.Use(c.wsLoggingMw)
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)
	wsrouter.Handle(mux, "SET_SOURCE", c.handleSetSource)
	wsrouter.Handle(mux, "PLAY", c.handlePlay)
	wsrouter.Handle(mux, "PAUSE", c.handlePause)
	wsrouter.Handle(mux, "SEEK", c.handleSeek)
	wsrouter.Handle(mux, "SET_RATE", c.handleSetRate)
	wsrouter.Handle(mux, "CHAT_MESSAGE", c.handleChatMessage)
	wsrouter.Handle(mux, "REQUEST_SYNC", c.handleRequestSync)

	return mux
}

// handleWSError keeps the connection alive on handler failures. A denied
// command is reported back to the sender; a malformed one is dropped with a
// log line only, so a buggy client cannot make the relay chatty.
func (c controller) handleWSError(ctx context.Context, conn *websocket.Conn, err error) {
	messageType := wsrouter.GetMessageTypeFromCtx(ctx)

	switch {
	case errors.Is(err, room.ErrPermissionDenied):
		if writeErr := c.writeToConn(ctx, conn, &Output{
			Type: "ERROR",
			Payload: map[string]string{
				"message_type": messageType,
				"error":        room.ErrPermissionDenied.Error(),
			},
		}); writeErr != nil {
			c.logger.WarnContext(ctx, "failed to write error output", "error", writeErr)
		}
	case errors.Is(err, room.ErrInvalidPayload):
		c.logger.WarnContext(ctx, "invalid message payload", "type", messageType, "error", err)
	default:
		c.logger.ErrorContext(ctx, "failed to handle message", "type", messageType, "error", err)
	}
}
