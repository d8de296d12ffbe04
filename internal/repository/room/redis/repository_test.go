package redis

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, slog.Default(), time.Hour, 10, 5)
}

func TestRoomLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRoom(ctx, "AAAAAA"))
	assert.ErrorIs(t, r.CreateRoom(ctx, "AAAAAA"), room.ErrRoomAlreadyExists)

	exists, err := r.RoomExists(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.True(t, exists)

	hostID, err := r.GetHostID(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Empty(t, hostID, "fresh room has no host")

	require.NoError(t, r.SetHostID(ctx, &room.SetHostParams{
		ParticipantID: "p1",
		RoomID:        "AAAAAA",
	}))

	hostID, err = r.GetHostID(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "p1", hostID)

	roomIDs, err := r.GetRoomIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAAA"}, roomIDs)

	require.NoError(t, r.RemoveRoom(ctx, "AAAAAA"))
	assert.ErrorIs(t, r.RemoveRoom(ctx, "AAAAAA"), room.ErrRoomNotFound)

	_, err = r.GetHostID(ctx, "AAAAAA")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestParticipantJoinOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRoom(ctx, "AAAAAA"))

	// deliberately inserted out of id order; join time decides
	require.NoError(t, r.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantID: "late",
		Username:      "late",
		JoinedAt:      300,
		LastSeenAt:    300,
		RoomID:        "AAAAAA",
	}))
	require.NoError(t, r.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantID: "early",
		Username:      "early",
		JoinedAt:      100,
		LastSeenAt:    100,
		RoomID:        "AAAAAA",
	}))
	require.NoError(t, r.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantID: "middle",
		Username:      "middle",
		JoinedAt:      200,
		LastSeenAt:    200,
		RoomID:        "AAAAAA",
	}))

	ids, err := r.GetParticipantIDs(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "middle", "late"}, ids)

	// re-setting keeps the original join score
	require.NoError(t, r.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantID: "early",
		Username:      "early-renamed",
		JoinedAt:      100,
		LastSeenAt:    999,
		RoomID:        "AAAAAA",
	}))

	ids, err = r.GetParticipantIDs(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "middle", "late"}, ids)

	participant, err := r.GetParticipant(ctx, &room.GetParticipantParams{
		ParticipantID: "early",
		RoomID:        "AAAAAA",
	})
	require.NoError(t, err)
	assert.Equal(t, "early-renamed", participant.Username)
	assert.Equal(t, int64(100), participant.JoinedAt)
	assert.Equal(t, int64(999), participant.LastSeenAt)

	require.NoError(t, r.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		ParticipantID: "middle",
		RoomID:        "AAAAAA",
	}))
	assert.ErrorIs(t, r.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		ParticipantID: "middle",
		RoomID:        "AAAAAA",
	}), room.ErrParticipantNotFound)

	ids, err = r.GetParticipantIDs(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids)
}

func TestUpdateParticipantLastSeen(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRoom(ctx, "AAAAAA"))
	require.NoError(t, r.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantID: "p1",
		Username:      "user",
		JoinedAt:      1,
		LastSeenAt:    1,
		RoomID:        "AAAAAA",
	}))

	require.NoError(t, r.UpdateParticipantLastSeen(ctx, &room.UpdateParticipantLastSeenParams{
		ParticipantID: "p1",
		LastSeenAt:    42,
		RoomID:        "AAAAAA",
	}))

	participant, err := r.GetParticipant(ctx, &room.GetParticipantParams{
		ParticipantID: "p1",
		RoomID:        "AAAAAA",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), participant.LastSeenAt)

	err = r.UpdateParticipantLastSeen(ctx, &room.UpdateParticipantLastSeenParams{
		ParticipantID: "ghost",
		LastSeenAt:    42,
		RoomID:        "AAAAAA",
	})
	assert.ErrorIs(t, err, room.ErrParticipantNotFound)
}

func TestPlayerRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRoom(ctx, "AAAAAA"))

	_, err := r.GetPlayer(ctx, "AAAAAA")
	assert.ErrorIs(t, err, room.ErrPlayerNotFound)

	state := playback.State{IsPlaying: true, Position: 12.5, Rate: 1.5, UpdatedAt: 1000}
	require.NoError(t, r.SetPlayer(ctx, &room.SetPlayerParams{State: state, RoomID: "AAAAAA"}))

	got, err := r.GetPlayer(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestSourceRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRoom(ctx, "AAAAAA"))

	_, err := r.GetSource(ctx, "AAAAAA")
	assert.ErrorIs(t, err, room.ErrSourceNotFound)

	require.NoError(t, r.SetSource(ctx, &room.SetSourceParams{
		Kind:    "youtube",
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		VideoID: "dQw4w9WgXcQ",
		Title:   "some title",
		RoomID:  "AAAAAA",
	}))

	source, err := r.GetSource(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "youtube", source.Kind)
	assert.Equal(t, "dQw4w9WgXcQ", source.VideoID)
	assert.Equal(t, "some title", source.Title)
}

func TestMessagesTrim(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRoom(ctx, "AAAAAA"))

	for i := 0; i < 11; i++ {
		require.NoError(t, r.AddMessage(ctx, &room.AddMessageParams{
			Message: room.Message{
				ID:     fmt.Sprintf("m%d", i),
				Text:   fmt.Sprintf("message %d", i),
				SentAt: int64(i),
			},
			RoomID: "AAAAAA",
		}))
	}

	messages, err := r.GetMessages(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, messages, 5, "history must be trimmed past the cap")
	assert.Equal(t, "m6", messages[0].ID, "oldest messages must be dropped first")
	assert.Equal(t, "m10", messages[4].ID)
}
