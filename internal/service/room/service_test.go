package room

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connInmemory "github.com/Arionyxx/cinesync/internal/repository/connection/inmemory"
	roomInmemory "github.com/Arionyxx/cinesync/internal/repository/room/inmemory"
	"github.com/Arionyxx/cinesync/pkg/ytvideo"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestService(t *testing.T, membersLimit int) (*service, *fakeClock) {
	t.Helper()

	roomRepo := roomInmemory.NewRepo(slog.Default(), 100, 50)
	connRepo := connInmemory.NewRepo(slog.Default())
	s := NewService(roomRepo, connRepo, slog.Default(), &Config{MembersLimit: membersLimit})

	clock := &fakeClock{current: time.UnixMilli(1700000000000)}
	s.now = clock.now
	s.getVideoData = func(videoID string) (*ytvideo.VideoData, error) {
		return &ytvideo.VideoData{Title: "test video"}, nil
	}

	return s, clock
}

func TestJoinRoom(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	// first join with no room id allocates a fresh room and makes the
	// joiner host
	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user1"})
	require.NoError(t, err)
	assert.Len(t, hostResp.Room.RoomID, 6, "room code must be 6 chars")
	assert.True(t, hostResp.Participant.IsHost, "first joiner must be host")
	assert.False(t, hostResp.Room.Playback.IsPlaying, "new room must start paused")
	assert.Equal(t, 1.0, hostResp.Room.Playback.Rate)

	joinResp, err := s.JoinRoom(ctx, &JoinRoomParams{
		Username: "user2",
		RoomID:   hostResp.Room.RoomID,
	})
	require.NoError(t, err)
	assert.False(t, joinResp.Participant.IsHost, "second joiner must not be host")
	assert.Equal(t, hostResp.Room.RoomID, joinResp.Room.RoomID)
	assert.Len(t, joinResp.Room.Participants, 2)

	// an unknown room id must not fail; it allocates a fresh room
	strayResp, err := s.JoinRoom(ctx, &JoinRoomParams{
		Username: "user3",
		RoomID:   "ZZZZZZ",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ZZZZZZ", strayResp.Room.RoomID)
	assert.True(t, strayResp.Participant.IsHost)
}

func TestJoinRoomRejoin(t *testing.T) {
	s, clock := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user1"})
	require.NoError(t, err)

	clock.advance(10 * time.Second)

	// re-join with a known participant id is idempotent and keeps the
	// host role
	rejoinResp, err := s.JoinRoom(ctx, &JoinRoomParams{
		Username:      "user1-renamed",
		RoomID:        hostResp.Room.RoomID,
		ParticipantID: hostResp.Participant.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, hostResp.Participant.ID, rejoinResp.Participant.ID)
	assert.True(t, rejoinResp.Participant.IsHost)
	assert.Len(t, rejoinResp.Room.Participants, 1, "rejoin must not add a participant")
	assert.Equal(t, "user1-renamed", rejoinResp.Participant.Username)
}

func TestJoinRoomMembersLimit(t *testing.T) {
	s, _ := newTestService(t, 2)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user1"})
	require.NoError(t, err)

	_, err = s.JoinRoom(ctx, &JoinRoomParams{Username: "user2", RoomID: hostResp.Room.RoomID})
	require.NoError(t, err)

	_, err = s.JoinRoom(ctx, &JoinRoomParams{Username: "user3", RoomID: hostResp.Room.RoomID})
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}

func TestPlaybackFlow(t *testing.T) {
	s, clock := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "host"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID
	hostID := hostResp.Participant.ID

	playResp, err := s.Play(ctx, &PlayParams{
		Position: 0,
		Rate:     1,
		SenderID: hostID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.True(t, playResp.State.IsPlaying)

	// a sync 5s later must extrapolate the playhead
	clock.advance(5 * time.Second)
	syncState, err := s.RequestSync(ctx, &RequestSyncParams{SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	assert.True(t, syncState.IsPlaying)
	assert.InDelta(t, 5.0, syncState.Position, 0.001)

	// pause keeps the rate
	pauseResp, err := s.Pause(ctx, &PauseParams{Position: 5, SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	assert.False(t, pauseResp.State.IsPlaying)
	assert.Equal(t, 1.0, pauseResp.State.Rate)

	// paused position does not advance
	clock.advance(30 * time.Second)
	syncState, err = s.RequestSync(ctx, &RequestSyncParams{SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, syncState.Position, 0.001)

	// seek keeps status and rate
	seekResp, err := s.Seek(ctx, &SeekParams{Position: 42, SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	assert.False(t, seekResp.State.IsPlaying)
	assert.Equal(t, 1.0, seekResp.State.Rate)
	assert.Equal(t, 42.0, seekResp.State.Position)
}

func TestSetRateReextrapolates(t *testing.T) {
	s, clock := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "host"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID
	hostID := hostResp.Participant.ID

	_, err = s.Play(ctx, &PlayParams{Position: 10, Rate: 1, SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)

	// 4s at rate 1 puts the playhead at 14; the rate switch must anchor
	// there, not warp the travelled stretch
	clock.advance(4 * time.Second)
	setRateResp, err := s.SetRate(ctx, &SetRateParams{Rate: 2, SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	assert.InDelta(t, 14.0, setRateResp.State.Position, 0.001)
	assert.Equal(t, 2.0, setRateResp.State.Rate)

	clock.advance(3 * time.Second)
	syncState, err := s.RequestSync(ctx, &RequestSyncParams{SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, syncState.Position, 0.001)
}

func TestNonHostCommandsRejected(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "host"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID

	joinResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "viewer", RoomID: roomID})
	require.NoError(t, err)
	viewerID := joinResp.Participant.ID

	_, err = s.Play(ctx, &PlayParams{Position: 0, Rate: 1, SenderID: viewerID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.Pause(ctx, &PauseParams{Position: 0, SenderID: viewerID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.Seek(ctx, &SeekParams{Position: 1, SenderID: viewerID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.SetRate(ctx, &SetRateParams{Rate: 2, SenderID: viewerID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.SetSource(ctx, &SetSourceParams{
		Kind:     SourceKindFile,
		URL:      "https://example.com/movie.mp4",
		SenderID: viewerID,
		RoomID:   roomID,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// chat is open to everyone
	_, err = s.PostMessage(ctx, &PostMessageParams{Text: "hi", SenderID: viewerID, RoomID: roomID})
	assert.NoError(t, err)
}

func TestInvalidPlayerCommands(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "host"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID
	hostID := hostResp.Participant.ID

	_, err = s.Play(ctx, &PlayParams{Position: -1, Rate: 1, SenderID: hostID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = s.Play(ctx, &PlayParams{Position: 0, Rate: 0, SenderID: hostID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = s.Seek(ctx, &SeekParams{Position: -0.5, SenderID: hostID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = s.SetRate(ctx, &SetRateParams{Rate: -2, SenderID: hostID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestSetSourceResetsPlayback(t *testing.T) {
	s, clock := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "host"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID
	hostID := hostResp.Participant.ID

	_, err = s.Play(ctx, &PlayParams{Position: 100, Rate: 2, SenderID: hostID, RoomID: roomID})
	require.NoError(t, err)
	clock.advance(10 * time.Second)

	setSourceResp, err := s.SetSource(ctx, &SetSourceParams{
		Kind:     SourceKindYouTube,
		URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		SenderID: hostID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", setSourceResp.Source.VideoID)
	assert.Equal(t, "test video", setSourceResp.Source.Title)
	assert.False(t, setSourceResp.Playback.IsPlaying, "source change must pause")
	assert.Equal(t, 0.0, setSourceResp.Playback.Position, "source change must rewind")

	roomState, err := s.GetRoomState(ctx, &GetRoomStateParams{RoomID: roomID})
	require.NoError(t, err)
	require.NotNil(t, roomState.Source)
	assert.Equal(t, SourceKindYouTube, roomState.Source.Kind)
}

func TestSetSourceInvalid(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "host"})
	require.NoError(t, err)

	_, err = s.SetSource(ctx, &SetSourceParams{
		Kind:     SourceKindYouTube,
		URL:      "https://example.com/not-youtube",
		SenderID: hostResp.Participant.ID,
		RoomID:   hostResp.Room.RoomID,
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = s.SetSource(ctx, &SetSourceParams{
		Kind:     "dvd",
		URL:      "https://example.com/movie",
		SenderID: hostResp.Participant.ID,
		RoomID:   hostResp.Room.RoomID,
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestHostHandover(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user1"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID

	join2Resp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user2", RoomID: roomID})
	require.NoError(t, err)

	join3Resp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user3", RoomID: roomID})
	require.NoError(t, err)

	// host leaves; the earliest joined of the remaining takes over
	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{
		ParticipantID: hostResp.Participant.ID,
		RoomID:        roomID,
	})
	require.NoError(t, err)
	assert.False(t, disconnectResp.IsRoomDeleted)
	assert.Equal(t, join2Resp.Participant.ID, disconnectResp.HostID)
	assert.Len(t, disconnectResp.Participants, 2)

	// a non-host leaving keeps the host
	disconnectResp, err = s.DisconnectMember(ctx, &DisconnectMemberParams{
		ParticipantID: join3Resp.Participant.ID,
		RoomID:        roomID,
	})
	require.NoError(t, err)
	assert.Equal(t, join2Resp.Participant.ID, disconnectResp.HostID)
}

func TestRoomDeletedWhenEmpty(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user1"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{
		ParticipantID: hostResp.Participant.ID,
		RoomID:        roomID,
	})
	require.NoError(t, err)
	assert.True(t, disconnectResp.IsRoomDeleted)

	_, err = s.GetRoomState(ctx, &GetRoomStateParams{RoomID: roomID})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestPostMessage(t *testing.T) {
	s, _ := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "talker"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID
	senderID := hostResp.Participant.ID

	postResp, err := s.PostMessage(ctx, &PostMessageParams{
		Text:     "hello there",
		SenderID: senderID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, postResp.Message.ID)
	assert.Equal(t, "talker", postResp.Message.AuthorName)
	assert.Equal(t, senderID, postResp.Message.AuthorID)

	// oversized text is truncated, not rejected
	longText := strings.Repeat("x", 1500)
	postResp, err = s.PostMessage(ctx, &PostMessageParams{
		Text:     longText,
		SenderID: senderID,
		RoomID:   roomID,
	})
	require.NoError(t, err)
	assert.Len(t, []rune(postResp.Message.Text), 1000)

	_, err = s.PostMessage(ctx, &PostMessageParams{Text: "", SenderID: senderID, RoomID: roomID})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = s.PostMessage(ctx, &PostMessageParams{Text: "hi", SenderID: "ghost", RoomID: roomID})
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	roomState, err := s.GetRoomState(ctx, &GetRoomStateParams{RoomID: roomID})
	require.NoError(t, err)
	assert.Len(t, roomState.Messages, 2)
}

func TestHeartbeatAndReaper(t *testing.T) {
	s, clock := newTestService(t, 9)
	ctx := context.Background()

	hostResp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user1"})
	require.NoError(t, err)
	roomID := hostResp.Room.RoomID

	join2Resp, err := s.JoinRoom(ctx, &JoinRoomParams{Username: "user2", RoomID: roomID})
	require.NoError(t, err)

	// user2 keeps polling, user1 goes silent
	clock.advance(40 * time.Second)
	require.NoError(t, s.Heartbeat(ctx, &HeartbeatParams{
		ParticipantID: join2Resp.Participant.ID,
		RoomID:        roomID,
	}))

	clock.advance(10 * time.Second)
	s.reap(ctx, 45*time.Second)

	roomState, err := s.GetRoomState(ctx, &GetRoomStateParams{RoomID: roomID})
	require.NoError(t, err)
	require.Len(t, roomState.Participants, 1)
	assert.Equal(t, join2Resp.Participant.ID, roomState.Participants[0].ID)
	assert.Equal(t, join2Resp.Participant.ID, roomState.HostID, "host role must pass to the survivor")
}
