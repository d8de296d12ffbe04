package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

// repo keeps room state in redis so several processes can share a registry.
// Every key carries the room TTL, refreshed on access, so crashed or
// abandoned rooms expire on their own.
type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	maxMessages    int64
	trimTo         int64
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, logger *slog.Logger, expireDuration time.Duration, maxMessages, trimTo int) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		maxMessages:    int64(maxMessages),
		trimTo:         int64(trimTo),
		logger:         logger,
	}
}

func (r repo) getRoomsKey() string {
	return "rooms"
}

func (r repo) getRoomKey(roomID string) string {
	return "room:" + roomID
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipe: %w", err)
	}

	return nil
}

func (r repo) CreateRoom(ctx context.Context, roomID string) error {
	added, err := r.rc.SAdd(ctx, r.getRoomsKey(), roomID).Result()
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if added == 0 {
		return room.ErrRoomAlreadyExists
	}

	pipe := r.rc.TxPipeline()
	roomKey := r.getRoomKey(roomID)
	pipe.HSet(ctx, roomKey, "host_id", "")
	pipe.Expire(ctx, roomKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}

func (r repo) RoomExists(ctx context.Context, roomID string) (bool, error) {
	exists, err := r.rc.SIsMember(ctx, r.getRoomsKey(), roomID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return exists, nil
}

func (r repo) RemoveRoom(ctx context.Context, roomID string) error {
	removed, err := r.rc.SRem(ctx, r.getRoomsKey(), roomID).Result()
	if err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	if removed == 0 {
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getRoomKey(roomID))
	pipe.Del(ctx, r.getParticipantListKey(roomID))
	pipe.Del(ctx, r.getPlayerKey(roomID))
	pipe.Del(ctx, r.getSourceKey(roomID))
	pipe.Del(ctx, r.getMessagesKey(roomID))

	keys, err := r.rc.Keys(ctx, r.getParticipantKey(roomID, "*")).Result()
	if err == nil {
		for _, key := range keys {
			pipe.Del(ctx, key)
		}
	}

	return r.executePipe(ctx, pipe)
}

func (r repo) GetRoomIDs(ctx context.Context) ([]string, error) {
	roomIDs, err := r.rc.SMembers(ctx, r.getRoomsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room ids: %w", err)
	}

	return roomIDs, nil
}

func (r repo) GetHostID(ctx context.Context, roomID string) (string, error) {
	roomKey := r.getRoomKey(roomID)
	hostID, err := r.rc.HGet(ctx, roomKey, "host_id").Result()
	if err != nil {
		if err == redis.Nil {
			return "", room.ErrRoomNotFound
		}

		return "", fmt.Errorf("failed to get host id: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return hostID, nil
}

func (r repo) SetHostID(ctx context.Context, params *room.SetHostParams) error {
	roomKey := r.getRoomKey(params.RoomID)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, roomKey, "host_id", params.ParticipantID)
	pipe.Expire(ctx, roomKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}
