package room

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

// lockRoom serializes multi-step mutations on a single room. Returns the
// unlock func.
func (s *service) lockRoom(roomID string) func() {
	value, _ := s.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *service) releaseRoomLock(roomID string) {
	s.roomLocks.Delete(roomID)
}

// mapRepoErr converts repository sentinels into service sentinels.
func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, room.ErrParticipantNotFound):
		return ErrParticipantNotFound
	default:
		return err
	}
}

// checkIsHost returns ErrPermissionDenied unless senderID is the room's
// current host.
func (s *service) checkIsHost(ctx context.Context, roomID, senderID string) error {
	hostID, err := s.roomRepo.GetHostID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get host id: %w", mapRepoErr(err))
	}

	if hostID == "" || hostID != senderID {
		return ErrPermissionDenied
	}

	return nil
}

// getConnsByRoomID collects the websocket conns of push-mode members.
// Pull-mode participants have no conn and are simply skipped.
func (s *service) getConnsByRoomID(ctx context.Context, roomID string) ([]*websocket.Conn, error) {
	participantIDs, err := s.roomRepo.GetParticipantIDs(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", mapRepoErr(err))
	}

	conns := make([]*websocket.Conn, 0, len(participantIDs))
	for _, participantID := range participantIDs {
		conn, err := s.connRepo.GetConn(participantID)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s *service) getParticipants(ctx context.Context, roomID, hostID string) ([]Participant, error) {
	participantIDs, err := s.roomRepo.GetParticipantIDs(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", mapRepoErr(err))
	}

	participants := make([]Participant, 0, len(participantIDs))
	for _, participantID := range participantIDs {
		participant, err := s.roomRepo.GetParticipant(ctx, &room.GetParticipantParams{
			ParticipantID: participantID,
			RoomID:        roomID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get participant: %w", mapRepoErr(err))
		}

		participants = append(participants, Participant{
			ID:         participantID,
			Username:   participant.Username,
			IsHost:     participantID == hostID,
			LastSeenAt: participant.LastSeenAt,
		})
	}

	return participants, nil
}

func (s *service) getSource(ctx context.Context, roomID string) (*Source, error) {
	source, err := s.roomRepo.GetSource(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrSourceNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get source: %w", mapRepoErr(err))
	}

	return &Source{
		Kind:    source.Kind,
		URL:     source.URL,
		VideoID: source.VideoID,
		Title:   source.Title,
	}, nil
}

// getRoomSummary assembles the full room view every transport distributes.
// The contained playback snapshot is the stored one; its updated_at pairs
// with position so receivers can extrapolate.
func (s *service) getRoomSummary(ctx context.Context, roomID string) (Room, error) {
	hostID, err := s.roomRepo.GetHostID(ctx, roomID)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get host id: %w", mapRepoErr(err))
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomID)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get player: %w", mapRepoErr(err))
	}

	source, err := s.getSource(ctx, roomID)
	if err != nil {
		return Room{}, err
	}

	participants, err := s.getParticipants(ctx, roomID, hostID)
	if err != nil {
		return Room{}, err
	}

	storedMessages, err := s.roomRepo.GetMessages(ctx, roomID)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get messages: %w", mapRepoErr(err))
	}

	messages := make([]Message, 0, len(storedMessages))
	for _, message := range storedMessages {
		messages = append(messages, Message{
			ID:         message.ID,
			Text:       message.Text,
			AuthorID:   message.AuthorID,
			AuthorName: message.AuthorName,
			SentAt:     message.SentAt,
		})
	}

	return Room{
		RoomID:       roomID,
		HostID:       hostID,
		Playback:     player,
		Source:       source,
		Participants: participants,
		Messages:     messages,
	}, nil
}
