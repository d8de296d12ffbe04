package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/service/room"
	"github.com/Arionyxx/cinesync/pkg/ctxlogger"
	"github.com/Arionyxx/cinesync/pkg/rest"
)

type wsJoinInput struct {
	Username      string `validate:"required,max=32"`
	ParticipantID string `validate:"omitempty,uuid"`
}

func (c controller) wsCreateRoom(w http.ResponseWriter, r *http.Request) {
	c.serveMember(w, r, "")
}

func (c controller) wsJoinRoom(w http.ResponseWriter, r *http.Request) {
	c.serveMember(w, r, chi.URLParam(r, "room-id"))
}

// serveMember joins the member, upgrades the request and serves messages on
// the resulting connection until it drops. Join errors are still answered
// over plain HTTP since the upgrade has not happened yet.
func (c controller) serveMember(w http.ResponseWriter, r *http.Request, roomID string) {
	input := wsJoinInput{
		Username:      r.URL.Query().Get("username"),
		ParticipantID: r.URL.Query().Get("participant-id"),
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	joinRoomResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomID:        roomID,
		ParticipantID: input.ParticipantID,
		Username:      input.Username,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	if err := c.roomService.ConnectMember(r.Context(), &room.ConnectMemberParams{
		Conn:          conn,
		ParticipantID: joinRoomResp.Participant.ID,
	}); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to connect member", "error", err)
		conn.Close()
		return
	}

	ctx := context.WithValue(r.Context(), roomIDCtxKey, joinRoomResp.Room.RoomID)
	ctx = context.WithValue(ctx, participantIDCtxKey, joinRoomResp.Participant.ID)
	ctx = ctxlogger.AppendCtx(ctx,
		slog.String("room_id", joinRoomResp.Room.RoomID),
		slog.String("participant_id", joinRoomResp.Participant.ID),
	)

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "JOINED",
		Payload: map[string]any{
			"participant": joinRoomResp.Participant,
			"room":        joinRoomResp.Room,
		},
	}); err != nil {
		c.logger.ErrorContext(ctx, "failed to write joined output", "error", err)
	}

	c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type: "PARTICIPANT_JOINED",
		Payload: map[string]any{
			"participant":  joinRoomResp.Participant,
			"participants": joinRoomResp.Room.Participants,
		},
	})

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}

	disconnectResp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		ParticipantID: joinRoomResp.Participant.ID,
		RoomID:        joinRoomResp.Room.RoomID,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if !disconnectResp.IsRoomDeleted {
		c.broadcast(ctx, disconnectResp.Conns, &Output{
			Type: "PARTICIPANT_LEFT",
			Payload: map[string]any{
				"left_participant_id": joinRoomResp.Participant.ID,
				"host_id":             disconnectResp.HostID,
				"participants":        disconnectResp.Participants,
			},
		})
	}
}

func (c controller) handleAlive(ctx context.Context, conn *websocket.Conn, _ struct{}) error {
	return c.roomService.Heartbeat(ctx, &room.HeartbeatParams{
		ParticipantID: c.getParticipantIDFromCtx(ctx),
		RoomID:        c.getRoomIDFromCtx(ctx),
	})
}

type setSourcePayload struct {
	Kind string `json:"kind" validate:"required,oneof=youtube file"`
	URL  string `json:"url" validate:"required,max=2048"`
}

func (c controller) handleSetSource(ctx context.Context, conn *websocket.Conn, payload setSourcePayload) error {
	if err := c.validatePayload(payload); err != nil {
		return err
	}

	setSourceResp, err := c.roomService.SetSource(ctx, &room.SetSourceParams{
		Kind:     payload.Kind,
		URL:      payload.URL,
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, setSourceResp.Conns, &Output{
		Type: "SOURCE_CHANGED",
		Payload: map[string]any{
			"source":   setSourceResp.Source,
			"playback": setSourceResp.Playback,
		},
	})

	return nil
}

type playPayload struct {
	Position float64 `json:"position" validate:"gte=0"`
	Rate     float64 `json:"rate" validate:"gt=0"`
}

func (c controller) handlePlay(ctx context.Context, conn *websocket.Conn, payload playPayload) error {
	if err := c.validatePayload(payload); err != nil {
		return err
	}

	playResp, err := c.roomService.Play(ctx, &room.PlayParams{
		Position: payload.Position,
		Rate:     payload.Rate,
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	c.broadcastPlayerState(ctx, playResp)

	return nil
}

type pausePayload struct {
	Position float64 `json:"position" validate:"gte=0"`
}

func (c controller) handlePause(ctx context.Context, conn *websocket.Conn, payload pausePayload) error {
	if err := c.validatePayload(payload); err != nil {
		return err
	}

	pauseResp, err := c.roomService.Pause(ctx, &room.PauseParams{
		Position: payload.Position,
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	c.broadcastPlayerState(ctx, pauseResp)

	return nil
}

type seekPayload struct {
	Position float64 `json:"position" validate:"gte=0"`
}

func (c controller) handleSeek(ctx context.Context, conn *websocket.Conn, payload seekPayload) error {
	if err := c.validatePayload(payload); err != nil {
		return err
	}

	seekResp, err := c.roomService.Seek(ctx, &room.SeekParams{
		Position: payload.Position,
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	c.broadcastPlayerState(ctx, seekResp)

	return nil
}

type setRatePayload struct {
	Rate float64 `json:"rate" validate:"gt=0"`
}

func (c controller) handleSetRate(ctx context.Context, conn *websocket.Conn, payload setRatePayload) error {
	if err := c.validatePayload(payload); err != nil {
		return err
	}

	setRateResp, err := c.roomService.SetRate(ctx, &room.SetRateParams{
		Rate:     payload.Rate,
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	c.broadcastPlayerState(ctx, setRateResp)

	return nil
}

type chatMessagePayload struct {
	Text string `json:"text" validate:"required"`
}

func (c controller) handleChatMessage(ctx context.Context, conn *websocket.Conn, payload chatMessagePayload) error {
	if err := c.validatePayload(payload); err != nil {
		return err
	}

	postMessageResp, err := c.roomService.PostMessage(ctx, &room.PostMessageParams{
		Text:     payload.Text,
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, postMessageResp.Conns, &Output{
		Type:    "CHAT_MESSAGE",
		Payload: postMessageResp.Message,
	})

	return nil
}

// handleRequestSync answers only the asking connection; nobody else needs
// the snapshot.
func (c controller) handleRequestSync(ctx context.Context, conn *websocket.Conn, _ struct{}) error {
	syncState, err := c.roomService.RequestSync(ctx, &room.RequestSyncParams{
		SenderID: c.getParticipantIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
	if err != nil {
		return err
	}

	return c.writeToConn(ctx, conn, &Output{
		Type:    "SYNC_RESPONSE",
		Payload: syncState,
	})
}
