package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/service/room"
	"github.com/Arionyxx/cinesync/pkg/validator"
	"github.com/Arionyxx/cinesync/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(ctx context.Context, params *room.JoinRoomParams) (room.JoinRoomResponse, error)
	ConnectMember(ctx context.Context, params *room.ConnectMemberParams) error
	DisconnectMember(ctx context.Context, params *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	Heartbeat(ctx context.Context, params *room.HeartbeatParams) error
	GetRoomState(ctx context.Context, params *room.GetRoomStateParams) (room.Room, error)
	SetSource(ctx context.Context, params *room.SetSourceParams) (room.SetSourceResponse, error)
	Play(ctx context.Context, params *room.PlayParams) (room.PlayerStateResponse, error)
	Pause(ctx context.Context, params *room.PauseParams) (room.PlayerStateResponse, error)
	Seek(ctx context.Context, params *room.SeekParams) (room.PlayerStateResponse, error)
	SetRate(ctx context.Context, params *room.SetRateParams) (room.PlayerStateResponse, error)
	RequestSync(ctx context.Context, params *room.RequestSyncParams) (room.SyncState, error)
	PostMessage(ctx context.Context, params *room.PostMessageParams) (room.PostMessageResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
