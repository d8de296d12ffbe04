package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connInmemory "github.com/Arionyxx/cinesync/internal/repository/connection/inmemory"
	roomRedis "github.com/Arionyxx/cinesync/internal/repository/room/redis"
	"github.com/Arionyxx/cinesync/internal/service/room"
)

func TestWatchPartyFlow(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	roomRepo := roomRedis.NewRepo(rc, slog.Default(), time.Hour, 100, 50)
	connRepo := connInmemory.NewRepo(slog.Default())
	service := room.NewService(roomRepo, connRepo, slog.Default(), &room.Config{MembersLimit: 9})

	ctx := context.Background()

	// host opens a room
	hostResp, err := service.JoinRoom(ctx, &room.JoinRoomParams{Username: "host"})
	require.NoError(t, err)
	assert.Len(t, hostResp.Room.RoomID, 6, "room code must be 6 chars")
	assert.True(t, hostResp.Participant.IsHost)
	roomID := hostResp.Room.RoomID
	hostID := hostResp.Participant.ID
	t.Log("room created")

	// a viewer joins by code
	viewerResp, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		Username: "viewer",
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.False(t, viewerResp.Participant.IsHost)
	assert.Len(t, viewerResp.Room.Participants, 2)
	viewerID := viewerResp.Participant.ID
	t.Log("viewer joined")

	// host sets the video
	setSourceResp, err := service.SetSource(ctx, &room.SetSourceParams{
		Kind:     room.SourceKindFile,
		URL:      "https://example.com/movie.mp4",
		SenderID: hostID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.False(t, setSourceResp.Playback.IsPlaying)
	assert.Equal(t, 0.0, setSourceResp.Playback.Position)
	t.Log("source set")

	// viewer may not control playback
	_, err = service.Play(ctx, &room.PlayParams{
		Position: 0,
		Rate:     1,
		SenderID: viewerID,
		RoomID:   roomID,
	})
	assert.ErrorIs(t, err, room.ErrPermissionDenied)

	// host starts playback
	playResp, err := service.Play(ctx, &room.PlayParams{
		Position: 0,
		Rate:     1,
		SenderID: hostID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.True(t, playResp.State.IsPlaying)
	t.Log("playback started")

	// anyone can ask for a sync snapshot
	syncState, err := service.RequestSync(ctx, &room.RequestSyncParams{
		SenderID: viewerID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.True(t, syncState.IsPlaying)
	assert.Equal(t, hostID, syncState.HostID)
	require.NotNil(t, syncState.Source)
	assert.Equal(t, room.SourceKindFile, syncState.Source.Kind)

	// chat is open to everyone
	postResp, err := service.PostMessage(ctx, &room.PostMessageParams{
		Text:     "great movie",
		SenderID: viewerID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.Equal(t, "viewer", postResp.Message.AuthorName)
	t.Log("message posted")

	// host leaves; the viewer inherits the room
	disconnectResp, err := service.DisconnectMember(ctx, &room.DisconnectMemberParams{
		ParticipantID: hostID,
		RoomID:        roomID,
	})
	require.NoError(t, err)
	assert.False(t, disconnectResp.IsRoomDeleted)
	assert.Equal(t, viewerID, disconnectResp.HostID)
	t.Log("host handed over")

	// new host can control playback now
	_, err = service.Pause(ctx, &room.PauseParams{
		Position: 10,
		SenderID: viewerID,
		RoomID:   roomID,
	})
	require.NoError(t, err)

	// last member leaving deletes the room
	disconnectResp, err = service.DisconnectMember(ctx, &room.DisconnectMemberParams{
		ParticipantID: viewerID,
		RoomID:        roomID,
	})
	require.NoError(t, err)
	assert.True(t, disconnectResp.IsRoomDeleted)

	_, err = service.GetRoomState(ctx, &room.GetRoomStateParams{RoomID: roomID})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	t.Log("room deleted")
}

func TestAppConfigValidate(t *testing.T) {
	valid := AppConfig{
		Host:               "0.0.0.0",
		Port:               8080,
		LogLevel:           "INFO",
		Storage:            StorageMemory,
		MembersLimit:       16,
		MaxMessages:        100,
		TrimMessagesTo:     50,
		ParticipantTimeout: 45 * time.Second,
		ReapInterval:       15 * time.Second,
	}
	require.NoError(t, valid.Validate())

	cfg := valid
	cfg.MembersLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = valid
	cfg.Storage = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = valid
	cfg.TrimMessagesTo = 200
	assert.Error(t, cfg.Validate())

	cfg = valid
	cfg.ReapInterval = 0
	assert.Error(t, cfg.Validate())
}
