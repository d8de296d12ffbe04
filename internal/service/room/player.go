package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
)

type PlayerStateResponse struct {
	State playback.State
	Conns []*websocket.Conn
}

type PlayParams struct {
	Position float64
	Rate     float64
	SenderID string
	RoomID   string
}

func (s *service) Play(ctx context.Context, params *PlayParams) (PlayerStateResponse, error) {
	if params.Position < 0 || params.Rate <= 0 {
		return PlayerStateResponse{}, fmt.Errorf("%w: position must be non-negative and rate positive", ErrInvalidPayload)
	}

	if err := s.checkIsHost(ctx, params.RoomID, params.SenderID); err != nil {
		return PlayerStateResponse{}, err
	}

	return s.setPlayerState(ctx, params.RoomID, playback.State{
		IsPlaying: true,
		Position:  params.Position,
		Rate:      params.Rate,
		UpdatedAt: s.now().UnixMilli(),
	})
}

type PauseParams struct {
	Position float64
	SenderID string
	RoomID   string
}

// Pause keeps the previously set rate.
func (s *service) Pause(ctx context.Context, params *PauseParams) (PlayerStateResponse, error) {
	if params.Position < 0 {
		return PlayerStateResponse{}, fmt.Errorf("%w: position must be non-negative", ErrInvalidPayload)
	}

	if err := s.checkIsHost(ctx, params.RoomID, params.SenderID); err != nil {
		return PlayerStateResponse{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err != nil {
		return PlayerStateResponse{}, fmt.Errorf("failed to get player: %w", mapRepoErr(err))
	}

	return s.setPlayerStateLocked(ctx, params.RoomID, playback.State{
		IsPlaying: false,
		Position:  params.Position,
		Rate:      player.Rate,
		UpdatedAt: s.now().UnixMilli(),
	})
}

type SeekParams struct {
	Position float64
	SenderID string
	RoomID   string
}

// Seek moves the playhead and keeps status and rate.
func (s *service) Seek(ctx context.Context, params *SeekParams) (PlayerStateResponse, error) {
	if params.Position < 0 {
		return PlayerStateResponse{}, fmt.Errorf("%w: position must be non-negative", ErrInvalidPayload)
	}

	if err := s.checkIsHost(ctx, params.RoomID, params.SenderID); err != nil {
		return PlayerStateResponse{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err != nil {
		return PlayerStateResponse{}, fmt.Errorf("failed to get player: %w", mapRepoErr(err))
	}

	return s.setPlayerStateLocked(ctx, params.RoomID, playback.State{
		IsPlaying: player.IsPlaying,
		Position:  params.Position,
		Rate:      player.Rate,
		UpdatedAt: s.now().UnixMilli(),
	})
}

type SetRateParams struct {
	Rate     float64
	SenderID string
	RoomID   string
}

// SetRate re-extrapolates the position at the switch instant so a rate
// change does not warp the timeline already travelled.
func (s *service) SetRate(ctx context.Context, params *SetRateParams) (PlayerStateResponse, error) {
	if params.Rate <= 0 {
		return PlayerStateResponse{}, fmt.Errorf("%w: rate must be positive", ErrInvalidPayload)
	}

	if err := s.checkIsHost(ctx, params.RoomID, params.SenderID); err != nil {
		return PlayerStateResponse{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err != nil {
		return PlayerStateResponse{}, fmt.Errorf("failed to get player: %w", mapRepoErr(err))
	}

	now := s.now()
	return s.setPlayerStateLocked(ctx, params.RoomID, playback.State{
		IsPlaying: player.IsPlaying,
		Position:  playback.Position(player, now),
		Rate:      params.Rate,
		UpdatedAt: now.UnixMilli(),
	})
}

func (s *service) setPlayerState(ctx context.Context, roomID string, state playback.State) (PlayerStateResponse, error) {
	unlock := s.lockRoom(roomID)
	defer unlock()

	return s.setPlayerStateLocked(ctx, roomID, state)
}

func (s *service) setPlayerStateLocked(ctx context.Context, roomID string, state playback.State) (PlayerStateResponse, error) {
	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		State:  state,
		RoomID: roomID,
	}); err != nil {
		return PlayerStateResponse{}, fmt.Errorf("failed to set player: %w", mapRepoErr(err))
	}

	conns, err := s.getConnsByRoomID(ctx, roomID)
	if err != nil {
		return PlayerStateResponse{}, err
	}

	s.logger.DebugContext(ctx, "player state updated", "room_id", roomID, "state", state)

	return PlayerStateResponse{
		State: state,
		Conns: conns,
	}, nil
}

type RequestSyncParams struct {
	SenderID string
	RoomID   string
}

// RequestSync answers with the playhead extrapolated to now, letting a
// drifting client re-align without waiting for the next host action.
func (s *service) RequestSync(ctx context.Context, params *RequestSyncParams) (SyncState, error) {
	exists, err := s.roomRepo.RoomExists(ctx, params.RoomID)
	if err != nil {
		return SyncState{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return SyncState{}, ErrRoomNotFound
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err != nil {
		return SyncState{}, fmt.Errorf("failed to get player: %w", mapRepoErr(err))
	}

	hostID, err := s.roomRepo.GetHostID(ctx, params.RoomID)
	if err != nil {
		return SyncState{}, fmt.Errorf("failed to get host id: %w", mapRepoErr(err))
	}

	source, err := s.getSource(ctx, params.RoomID)
	if err != nil {
		return SyncState{}, err
	}

	now := s.now()
	return SyncState{
		IsPlaying: player.IsPlaying,
		Position:  playback.Position(player, now),
		Rate:      player.Rate,
		UpdatedAt: now.UnixMilli(),
		Source:    source,
		HostID:    hostID,
	}, nil
}
