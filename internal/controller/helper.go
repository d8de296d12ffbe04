package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/service/room"
	"github.com/Arionyxx/cinesync/pkg/rest"
)

const headerPrefix = "Cs-"

func (c controller) mustHeader(r *http.Request, key string) (string, error) {
	value := r.Header.Get(headerPrefix + key)
	if value == "" {
		return "", fmt.Errorf("%s header was not provided", headerPrefix+key)
	}

	return value, nil
}

func (c controller) validatePayload(payload any) error {
	validationErrors, ok := c.validate.Validate(payload)
	if !ok {
		return fmt.Errorf("%w: %v", room.ErrInvalidPayload, validationErrors)
	}

	return nil
}

// Output is the envelope of every push-mode event.
type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// broadcast fans an event out to room members, fire-and-forget. A failed
// write only loses that member's delivery; they converge on the next
// snapshot they receive.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.WarnContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		}
	}
}

func (c controller) broadcastPlayerState(ctx context.Context, resp room.PlayerStateResponse) {
	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "PLAYER_STATE_UPDATED",
		Payload: resp.State,
	})
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

// writeServiceError maps service sentinels onto the pull-mode status codes.
func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": room.ErrRoomNotFound.Error()})
	case errors.Is(err, room.ErrParticipantNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": room.ErrParticipantNotFound.Error()})
	case errors.Is(err, room.ErrPermissionDenied):
		rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": room.ErrPermissionDenied.Error()})
	case errors.Is(err, room.ErrInvalidPayload):
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
	case errors.Is(err, room.ErrMembersLimitReached):
		rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": room.ErrMembersLimitReached.Error()})
	default:
		c.logger.ErrorContext(r.Context(), "internal error", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
	}
}
