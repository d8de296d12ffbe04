package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
	"github.com/Arionyxx/cinesync/pkg/ytvideo"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrMembersLimitReached = errors.New("members limit reached")
)

type iRoomRepo interface {
	// room
	CreateRoom(ctx context.Context, roomID string) error
	RoomExists(ctx context.Context, roomID string) (bool, error)
	RemoveRoom(ctx context.Context, roomID string) error
	GetRoomIDs(ctx context.Context) ([]string, error)
	// host
	GetHostID(ctx context.Context, roomID string) (string, error)
	SetHostID(ctx context.Context, params *room.SetHostParams) error
	// participant
	SetParticipant(ctx context.Context, params *room.SetParticipantParams) error
	RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) error
	GetParticipant(ctx context.Context, params *room.GetParticipantParams) (room.Participant, error)
	GetParticipantIDs(ctx context.Context, roomID string) ([]string, error)
	UpdateParticipantLastSeen(ctx context.Context, params *room.UpdateParticipantLastSeenParams) error
	// player
	GetPlayer(ctx context.Context, roomID string) (playback.State, error)
	SetPlayer(ctx context.Context, params *room.SetPlayerParams) error
	// source
	GetSource(ctx context.Context, roomID string) (room.Source, error)
	SetSource(ctx context.Context, params *room.SetSourceParams) error
	// messages
	AddMessage(ctx context.Context, params *room.AddMessageParams) error
	GetMessages(ctx context.Context, roomID string) ([]room.Message, error)
}

// RoomRepo is the storage contract; both the in-memory and the redis
// backends satisfy it.
type RoomRepo = iRoomRepo

type iConnRepo interface {
	Add(conn *websocket.Conn, participantID string) error
	RemoveByParticipantID(participantID string) (*websocket.Conn, error)
	GetParticipantID(conn *websocket.Conn) (string, error)
	GetConn(participantID string) (*websocket.Conn, error)
}

type Config struct {
	MembersLimit int
	// CodeAttempts bounds the retry loop on room code collision.
	CodeAttempts int
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	membersLimit int
	codeAttempts int
	logger       *slog.Logger

	// one lock per open room serializes multi-step mutations; rooms are
	// fully independent of each other
	roomLocks sync.Map

	now          func() time.Time
	getVideoData func(videoID string) (*ytvideo.VideoData, error)
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger, cfg *Config) *service {
	codeAttempts := cfg.CodeAttempts
	if codeAttempts < 1 {
		codeAttempts = 10
	}

	return &service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		membersLimit: cfg.MembersLimit,
		codeAttempts: codeAttempts,
		logger:       logger,
		now:          time.Now,
		getVideoData: ytvideo.GetVideoData,
	}
}
