package redis

import (
	"context"
	"fmt"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

func (r repo) getParticipantKey(roomID, participantID string) string {
	return "room:" + roomID + ":participant:" + participantID
}

func (r repo) getParticipantListKey(roomID string) string {
	return "room:" + roomID + ":participants"
}

func (r repo) SetParticipant(ctx context.Context, params *room.SetParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	participant := room.Participant{
		Username:   params.Username,
		JoinedAt:   params.JoinedAt,
		LastSeenAt: params.LastSeenAt,
	}

	participantKey := r.getParticipantKey(params.RoomID, params.ParticipantID)
	pipe.HSet(ctx, participantKey, participant)
	pipe.Expire(ctx, participantKey, r.expireDuration)

	// join order is the zset score, so handover stays deterministic
	listKey := r.getParticipantListKey(params.RoomID)
	pipe.ZAddNX(ctx, listKey, roomZ(params.JoinedAt, params.ParticipantID))
	pipe.Expire(ctx, listKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}

func (r repo) RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	removed, err := r.rc.ZRem(ctx, r.getParticipantListKey(params.RoomID), params.ParticipantID).Result()
	if err != nil {
		return fmt.Errorf("failed to remove participant from list: %w", err)
	}

	if removed == 0 {
		return room.ErrParticipantNotFound
	}

	if err := r.rc.Del(ctx, r.getParticipantKey(params.RoomID, params.ParticipantID)).Err(); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	return nil
}

func (r repo) GetParticipant(ctx context.Context, params *room.GetParticipantParams) (room.Participant, error) {
	participantKey := r.getParticipantKey(params.RoomID, params.ParticipantID)
	exists, err := r.rc.Exists(ctx, participantKey).Result()
	if err != nil {
		return room.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}

	if exists == 0 {
		return room.Participant{}, room.ErrParticipantNotFound
	}

	var participant room.Participant
	if err := r.rc.HGetAll(ctx, participantKey).Scan(&participant); err != nil {
		return room.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}

	r.rc.Expire(ctx, participantKey, r.expireDuration)

	return participant, nil
}

// GetParticipantIDs returns ids ordered by join time.
func (r repo) GetParticipantIDs(ctx context.Context, roomID string) ([]string, error) {
	listKey := r.getParticipantListKey(roomID)
	participantIDs, err := r.rc.ZRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	r.rc.Expire(ctx, listKey, r.expireDuration)

	return participantIDs, nil
}

func (r repo) UpdateParticipantLastSeen(ctx context.Context, params *room.UpdateParticipantLastSeenParams) error {
	participantKey := r.getParticipantKey(params.RoomID, params.ParticipantID)
	exists, err := r.rc.Exists(ctx, participantKey).Result()
	if err != nil {
		return fmt.Errorf("failed to update participant last seen: %w", err)
	}

	if exists == 0 {
		return room.ErrParticipantNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, participantKey, "last_seen_at", params.LastSeenAt)
	pipe.Expire(ctx, participantKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}
