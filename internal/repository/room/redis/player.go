package redis

import (
	"context"
	"fmt"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
)

func (r repo) getPlayerKey(roomID string) string {
	return "room:" + roomID + ":player"
}

func (r repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	playerKey := r.getPlayerKey(params.RoomID)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, playerKey, params.State)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}

func (r repo) GetPlayer(ctx context.Context, roomID string) (playback.State, error) {
	playerKey := r.getPlayerKey(roomID)
	exists, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return playback.State{}, fmt.Errorf("failed to get player: %w", err)
	}

	if exists == 0 {
		return playback.State{}, room.ErrPlayerNotFound
	}

	var state playback.State
	if err := r.rc.HGetAll(ctx, playerKey).Scan(&state); err != nil {
		return playback.State{}, fmt.Errorf("failed to get player: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return state, nil
}
