package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

// maxMessageLen caps chat message text, counted in runes.
const maxMessageLen = 1000

type PostMessageParams struct {
	Text     string
	SenderID string
	RoomID   string
}

type PostMessageResponse struct {
	Message Message
	Conns   []*websocket.Conn
}

// PostMessage appends a chat message. No host restriction; any participant
// may write.
func (s *service) PostMessage(ctx context.Context, params *PostMessageParams) (PostMessageResponse, error) {
	if params.Text == "" {
		return PostMessageResponse{}, fmt.Errorf("%w: text is required", ErrInvalidPayload)
	}

	sender, err := s.roomRepo.GetParticipant(ctx, &room.GetParticipantParams{
		ParticipantID: params.SenderID,
		RoomID:        params.RoomID,
	})
	if err != nil {
		return PostMessageResponse{}, fmt.Errorf("failed to get sender: %w", mapRepoErr(err))
	}

	text := params.Text
	if runes := []rune(text); len(runes) > maxMessageLen {
		text = string(runes[:maxMessageLen])
	}

	message := Message{
		ID:         uuid.NewString(),
		Text:       text,
		AuthorID:   params.SenderID,
		AuthorName: sender.Username,
		SentAt:     s.now().UnixMilli(),
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	if err := s.roomRepo.AddMessage(ctx, &room.AddMessageParams{
		Message: room.Message{
			ID:         message.ID,
			Text:       message.Text,
			AuthorID:   message.AuthorID,
			AuthorName: message.AuthorName,
			SentAt:     message.SentAt,
		},
		RoomID: params.RoomID,
	}); err != nil {
		return PostMessageResponse{}, fmt.Errorf("failed to add message: %w", mapRepoErr(err))
	}

	conns, err := s.getConnsByRoomID(ctx, params.RoomID)
	if err != nil {
		return PostMessageResponse{}, err
	}

	return PostMessageResponse{
		Message: message,
		Conns:   conns,
	}, nil
}
