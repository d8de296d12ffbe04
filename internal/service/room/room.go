package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
	"github.com/Arionyxx/cinesync/pkg/roomcode"
)

// createRoom allocates a fresh room with a generated code, retrying on the
// unlikely collision with an open room. The registry is authoritative.
func (s *service) createRoom(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		roomID := roomcode.Generate()
		err := s.roomRepo.CreateRoom(ctx, roomID)
		if err == nil {
			if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
				State:  playback.NewPausedState(s.now()),
				RoomID: roomID,
			}); err != nil {
				return "", fmt.Errorf("failed to set player: %w", err)
			}

			return roomID, nil
		}

		if !errors.Is(err, room.ErrRoomAlreadyExists) {
			return "", fmt.Errorf("failed to create room: %w", err)
		}

		s.logger.WarnContext(ctx, "room code collision", "room_id", roomID, "attempt", attempt+1)
	}

	return "", fmt.Errorf("failed to generate unique room code after %d attempts", s.codeAttempts)
}

type JoinRoomParams struct {
	// RoomID is optional: empty or unknown ids allocate a fresh room.
	RoomID string
	// ParticipantID is optional: a known id makes the join idempotent
	// (re-join refreshes username and last seen).
	ParticipantID string
	Username      string
}

type JoinRoomResponse struct {
	Room        Room
	Participant Participant
	Conns       []*websocket.Conn
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	roomID := params.RoomID
	if roomID != "" {
		exists, err := s.roomRepo.RoomExists(ctx, roomID)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
		}

		if !exists {
			roomID = ""
		}
	}

	if roomID == "" {
		var err error
		roomID, err = s.createRoom(ctx)
		if err != nil {
			return JoinRoomResponse{}, err
		}
	}

	unlock := s.lockRoom(roomID)
	defer unlock()

	now := s.now().UnixMilli()

	participantID := params.ParticipantID
	joinedAt := now
	isRejoin := false
	if participantID != "" {
		participant, err := s.roomRepo.GetParticipant(ctx, &room.GetParticipantParams{
			ParticipantID: participantID,
			RoomID:        roomID,
		})
		if err == nil {
			isRejoin = true
			joinedAt = participant.JoinedAt
		}
	}
	if !isRejoin {
		participantID = uuid.NewString()

		participantIDs, err := s.roomRepo.GetParticipantIDs(ctx, roomID)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to get participant ids: %w", mapRepoErr(err))
		}

		if s.membersLimit > 0 && len(participantIDs) >= s.membersLimit {
			return JoinRoomResponse{}, ErrMembersLimitReached
		}
	}

	if err := s.roomRepo.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantID: participantID,
		Username:      params.Username,
		JoinedAt:      joinedAt,
		LastSeenAt:    now,
		RoomID:        roomID,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to set participant: %w", mapRepoErr(err))
	}

	hostID, err := s.roomRepo.GetHostID(ctx, roomID)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get host id: %w", mapRepoErr(err))
	}

	if hostID == "" {
		if err := s.roomRepo.SetHostID(ctx, &room.SetHostParams{
			ParticipantID: participantID,
			RoomID:        roomID,
		}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set host id: %w", mapRepoErr(err))
		}

		hostID = participantID
	}

	summary, err := s.getRoomSummary(ctx, roomID)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	conns, err := s.getConnsByRoomID(ctx, roomID)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "participant joined",
		"room_id", roomID,
		"participant_id", participantID,
		"is_host", participantID == hostID,
	)

	return JoinRoomResponse{
		Room: summary,
		Participant: Participant{
			ID:         participantID,
			Username:   params.Username,
			IsHost:     participantID == hostID,
			LastSeenAt: now,
		},
		Conns: conns,
	}, nil
}

type DisconnectMemberParams struct {
	ParticipantID string
	RoomID        string
}

type DisconnectMemberResponse struct {
	HostID        string
	Participants  []Participant
	Conns         []*websocket.Conn
	IsRoomDeleted bool
}

// DisconnectMember is the single convergence point for explicit leave,
// transport disconnect and reaper eviction. If the host left, the
// earliest-joined remaining participant takes over; an emptied room is
// removed from the registry.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	if err := s.roomRepo.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		ParticipantID: params.ParticipantID,
		RoomID:        params.RoomID,
	}); err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to remove participant: %w", mapRepoErr(err))
	}

	if conn, err := s.connRepo.RemoveByParticipantID(params.ParticipantID); err == nil {
		conn.Close()
	}

	participantIDs, err := s.roomRepo.GetParticipantIDs(ctx, params.RoomID)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get participant ids: %w", mapRepoErr(err))
	}

	if len(participantIDs) == 0 {
		if err := s.roomRepo.RemoveRoom(ctx, params.RoomID); err != nil {
			return DisconnectMemberResponse{}, fmt.Errorf("failed to remove room: %w", mapRepoErr(err))
		}
		s.releaseRoomLock(params.RoomID)

		s.logger.InfoContext(ctx, "room deleted", "room_id", params.RoomID)
		return DisconnectMemberResponse{IsRoomDeleted: true}, nil
	}

	hostID, err := s.roomRepo.GetHostID(ctx, params.RoomID)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get host id: %w", mapRepoErr(err))
	}

	if hostID == params.ParticipantID {
		hostID = participantIDs[0]
		if err := s.roomRepo.SetHostID(ctx, &room.SetHostParams{
			ParticipantID: hostID,
			RoomID:        params.RoomID,
		}); err != nil {
			return DisconnectMemberResponse{}, fmt.Errorf("failed to set host id: %w", mapRepoErr(err))
		}

		s.logger.InfoContext(ctx, "host handover",
			"room_id", params.RoomID,
			"left_participant_id", params.ParticipantID,
			"new_host_id", hostID,
		)
	}

	participants, err := s.getParticipants(ctx, params.RoomID, hostID)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	conns, err := s.getConnsByRoomID(ctx, params.RoomID)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	return DisconnectMemberResponse{
		HostID:       hostID,
		Participants: participants,
		Conns:        conns,
	}, nil
}

type ConnectMemberParams struct {
	Conn          *websocket.Conn
	ParticipantID string
}

func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.ParticipantID); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

type HeartbeatParams struct {
	ParticipantID string
	RoomID        string
}

// Heartbeat refreshes a participant's last seen so the reaper keeps them.
func (s *service) Heartbeat(ctx context.Context, params *HeartbeatParams) error {
	if err := s.roomRepo.UpdateParticipantLastSeen(ctx, &room.UpdateParticipantLastSeenParams{
		ParticipantID: params.ParticipantID,
		LastSeenAt:    s.now().UnixMilli(),
		RoomID:        params.RoomID,
	}); err != nil {
		return fmt.Errorf("failed to update participant last seen: %w", mapRepoErr(err))
	}

	return nil
}

type GetRoomStateParams struct {
	RoomID string
	// SenderID is optional; when set the participant's last seen is
	// refreshed, which is the pull-mode heartbeat.
	SenderID string
}

func (s *service) GetRoomState(ctx context.Context, params *GetRoomStateParams) (Room, error) {
	exists, err := s.roomRepo.RoomExists(ctx, params.RoomID)
	if err != nil {
		return Room{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return Room{}, ErrRoomNotFound
	}

	if params.SenderID != "" {
		if err := s.roomRepo.UpdateParticipantLastSeen(ctx, &room.UpdateParticipantLastSeenParams{
			ParticipantID: params.SenderID,
			LastSeenAt:    s.now().UnixMilli(),
			RoomID:        params.RoomID,
		}); err != nil && !errors.Is(err, room.ErrParticipantNotFound) {
			return Room{}, fmt.Errorf("failed to update participant last seen: %w", mapRepoErr(err))
		}
	}

	return s.getRoomSummary(ctx, params.RoomID)
}
