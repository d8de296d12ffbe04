package redis

import (
	"context"
	"fmt"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

func (r repo) getSourceKey(roomID string) string {
	return "room:" + roomID + ":source"
}

func (r repo) SetSource(ctx context.Context, params *room.SetSourceParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	sourceKey := r.getSourceKey(params.RoomID)

	source := room.Source{
		Kind:    params.Kind,
		URL:     params.URL,
		VideoID: params.VideoID,
		Title:   params.Title,
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, sourceKey, source)
	pipe.Expire(ctx, sourceKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}

func (r repo) GetSource(ctx context.Context, roomID string) (room.Source, error) {
	sourceKey := r.getSourceKey(roomID)
	exists, err := r.rc.Exists(ctx, sourceKey).Result()
	if err != nil {
		return room.Source{}, fmt.Errorf("failed to get source: %w", err)
	}

	if exists == 0 {
		return room.Source{}, room.ErrSourceNotFound
	}

	var source room.Source
	if err := r.rc.HGetAll(ctx, sourceKey).Scan(&source); err != nil {
		return room.Source{}, fmt.Errorf("failed to get source: %w", err)
	}

	r.rc.Expire(ctx, sourceKey, r.expireDuration)

	return source, nil
}
