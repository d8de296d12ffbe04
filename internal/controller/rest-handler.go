package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Arionyxx/cinesync/internal/service/room"
	"github.com/Arionyxx/cinesync/pkg/rest"
)

type joinRoomInput struct {
	Username      string `json:"username" validate:"required,max=32"`
	RoomID        string `json:"room_id" validate:"omitempty,len=6"`
	ParticipantID string `json:"participant_id" validate:"omitempty,uuid"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var input joinRoomInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	joinRoomResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomID:        input.RoomID,
		ParticipantID: input.ParticipantID,
		Username:      input.Username,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcast(r.Context(), joinRoomResp.Conns, &Output{
		Type: "PARTICIPANT_JOINED",
		Payload: map[string]any{
			"participant":  joinRoomResp.Participant,
			"participants": joinRoomResp.Room.Participants,
		},
	})

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"participant": joinRoomResp.Participant,
		"room":        joinRoomResp.Room,
	}})
}

func (c controller) getRoomState(w http.ResponseWriter, r *http.Request) {
	roomState, err := c.roomService.GetRoomState(r.Context(), &room.GetRoomStateParams{
		RoomID:   chi.URLParam(r, "room-id"),
		SenderID: r.Header.Get(headerPrefix + "Participant-Id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": roomState})
}

func (c controller) leaveRoom(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	disconnectResp, err := c.roomService.DisconnectMember(r.Context(), &room.DisconnectMemberParams{
		ParticipantID: participantID,
		RoomID:        chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	if !disconnectResp.IsRoomDeleted {
		c.broadcast(r.Context(), disconnectResp.Conns, &Output{
			Type: "PARTICIPANT_LEFT",
			Payload: map[string]any{
				"left_participant_id": participantID,
				"host_id":             disconnectResp.HostID,
				"participants":        disconnectResp.Participants,
			},
		})
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": "OK"})
}

type setSourceInput struct {
	Kind string `json:"kind" validate:"required,oneof=youtube file"`
	URL  string `json:"url" validate:"required,max=2048"`
}

func (c controller) setSource(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	var input setSourceInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	setSourceResp, err := c.roomService.SetSource(r.Context(), &room.SetSourceParams{
		Kind:     input.Kind,
		URL:      input.URL,
		SenderID: participantID,
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcast(r.Context(), setSourceResp.Conns, &Output{
		Type: "SOURCE_CHANGED",
		Payload: map[string]any{
			"source":   setSourceResp.Source,
			"playback": setSourceResp.Playback,
		},
	})

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"source":   setSourceResp.Source,
		"playback": setSourceResp.Playback,
	}})
}

type playInput struct {
	Position float64 `json:"position" validate:"gte=0"`
	Rate     float64 `json:"rate" validate:"gt=0"`
}

func (c controller) play(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	var input playInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	playResp, err := c.roomService.Play(r.Context(), &room.PlayParams{
		Position: input.Position,
		Rate:     input.Rate,
		SenderID: participantID,
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcastPlayerState(r.Context(), playResp)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playResp.State})
}

type pauseInput struct {
	Position float64 `json:"position" validate:"gte=0"`
}

func (c controller) pause(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	var input pauseInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	pauseResp, err := c.roomService.Pause(r.Context(), &room.PauseParams{
		Position: input.Position,
		SenderID: participantID,
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcastPlayerState(r.Context(), pauseResp)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": pauseResp.State})
}

type seekInput struct {
	Position float64 `json:"position" validate:"gte=0"`
}

func (c controller) seek(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	var input seekInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	seekResp, err := c.roomService.Seek(r.Context(), &room.SeekParams{
		Position: input.Position,
		SenderID: participantID,
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcastPlayerState(r.Context(), seekResp)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": seekResp.State})
}

type setRateInput struct {
	Rate float64 `json:"rate" validate:"gt=0"`
}

func (c controller) setRate(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	var input setRateInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	setRateResp, err := c.roomService.SetRate(r.Context(), &room.SetRateParams{
		Rate:     input.Rate,
		SenderID: participantID,
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcastPlayerState(r.Context(), setRateResp)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": setRateResp.State})
}

func (c controller) requestSync(w http.ResponseWriter, r *http.Request) {
	syncState, err := c.roomService.RequestSync(r.Context(), &room.RequestSyncParams{
		SenderID: r.Header.Get(headerPrefix + "Participant-Id"),
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": syncState})
}

type postMessageInput struct {
	Text string `json:"text" validate:"required"`
}

func (c controller) postMessage(w http.ResponseWriter, r *http.Request) {
	participantID, err := c.mustHeader(r, "Participant-Id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	var input postMessageInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	postMessageResp, err := c.roomService.PostMessage(r.Context(), &room.PostMessageParams{
		Text:     input.Text,
		SenderID: participantID,
		RoomID:   chi.URLParam(r, "room-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	c.broadcast(r.Context(), postMessageResp.Conns, &Output{
		Type:    "CHAT_MESSAGE",
		Payload: postMessageResp.Message,
	})

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": postMessageResp.Message})
}
