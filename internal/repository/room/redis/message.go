package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

func (r repo) getMessagesKey(roomID string) string {
	return "room:" + roomID + ":messages"
}

func (r repo) AddMessage(ctx context.Context, params *room.AddMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	raw, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	messagesKey := r.getMessagesKey(params.RoomID)
	length, err := r.rc.RPush(ctx, messagesKey, raw).Result()
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	pipe := r.rc.TxPipeline()
	if length > r.maxMessages {
		pipe.LTrim(ctx, messagesKey, -r.trimTo, -1)
	}
	pipe.Expire(ctx, messagesKey, r.expireDuration)

	return r.executePipe(ctx, pipe)
}

func (r repo) GetMessages(ctx context.Context, roomID string) ([]room.Message, error) {
	messagesKey := r.getMessagesKey(roomID)
	raws, err := r.rc.LRange(ctx, messagesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	r.rc.Expire(ctx, messagesKey, r.expireDuration)

	messages := make([]room.Message, 0, len(raws))
	for _, raw := range raws {
		var message room.Message
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}
