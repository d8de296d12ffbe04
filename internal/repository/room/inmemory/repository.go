package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
)

type roomState struct {
	hostID         string
	player         playback.State
	source         *room.Source
	participantIDs []string
	participants   map[string]room.Participant
	messages       []room.Message
}

// repo is the default process-local room store. A single RWMutex guards the
// whole map; rooms are short-lived and contention is per-request, not
// per-frame.
type repo struct {
	rooms       map[string]*roomState
	mu          sync.RWMutex
	maxMessages int
	trimTo      int
	logger      *slog.Logger
}

func NewRepo(logger *slog.Logger, maxMessages, trimTo int) *repo {
	return &repo{
		rooms:       make(map[string]*roomState),
		maxMessages: maxMessages,
		trimTo:      trimTo,
		logger:      logger,
	}
}

func (r *repo) getRoom(roomID string) (*roomState, error) {
	state, ok := r.rooms[roomID]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return state, nil
}

func (r *repo) CreateRoom(ctx context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; ok {
		return room.ErrRoomAlreadyExists
	}

	r.rooms[roomID] = &roomState{
		participants: make(map[string]room.Participant),
	}

	r.logger.DebugContext(ctx, "room created", "room_id", roomID)
	return nil
}

func (r *repo) RoomExists(ctx context.Context, roomID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomID]
	return ok, nil
}

func (r *repo) RemoveRoom(ctx context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		return room.ErrRoomNotFound
	}

	delete(r.rooms, roomID)

	r.logger.DebugContext(ctx, "room removed", "room_id", roomID)
	return nil
}

func (r *repo) GetRoomIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Keys(r.rooms), nil
}

func (r *repo) SetParticipant(ctx context.Context, params *room.SetParticipantParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	if _, ok := state.participants[params.ParticipantID]; !ok {
		state.participantIDs = append(state.participantIDs, params.ParticipantID)
	}

	state.participants[params.ParticipantID] = room.Participant{
		Username:   params.Username,
		JoinedAt:   params.JoinedAt,
		LastSeenAt: params.LastSeenAt,
	}

	return nil
}

func (r *repo) RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	if _, ok := state.participants[params.ParticipantID]; !ok {
		return room.ErrParticipantNotFound
	}

	delete(state.participants, params.ParticipantID)
	for i, id := range state.participantIDs {
		if id == params.ParticipantID {
			state.participantIDs = append(state.participantIDs[:i], state.participantIDs[i+1:]...)
			break
		}
	}

	return nil
}

func (r *repo) GetParticipant(ctx context.Context, params *room.GetParticipantParams) (room.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return room.Participant{}, err
	}

	participant, ok := state.participants[params.ParticipantID]
	if !ok {
		return room.Participant{}, room.ErrParticipantNotFound
	}

	return participant, nil
}

// GetParticipantIDs returns ids in join order.
func (r *repo) GetParticipantIDs(ctx context.Context, roomID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(state.participantIDs))
	copy(ids, state.participantIDs)
	return ids, nil
}

func (r *repo) UpdateParticipantLastSeen(ctx context.Context, params *room.UpdateParticipantLastSeenParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	participant, ok := state.participants[params.ParticipantID]
	if !ok {
		return room.ErrParticipantNotFound
	}

	participant.LastSeenAt = params.LastSeenAt
	state.participants[params.ParticipantID] = participant

	return nil
}

func (r *repo) GetHostID(ctx context.Context, roomID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomID)
	if err != nil {
		return "", err
	}

	return state.hostID, nil
}

func (r *repo) SetHostID(ctx context.Context, params *room.SetHostParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	state.hostID = params.ParticipantID
	return nil
}

func (r *repo) GetPlayer(ctx context.Context, roomID string) (playback.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomID)
	if err != nil {
		return playback.State{}, err
	}

	return state.player, nil
}

func (r *repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	state.player = params.State
	return nil
}

func (r *repo) GetSource(ctx context.Context, roomID string) (room.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomID)
	if err != nil {
		return room.Source{}, err
	}

	if state.source == nil {
		return room.Source{}, room.ErrSourceNotFound
	}

	return *state.source, nil
}

func (r *repo) SetSource(ctx context.Context, params *room.SetSourceParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	state.source = &room.Source{
		Kind:    params.Kind,
		URL:     params.URL,
		VideoID: params.VideoID,
		Title:   params.Title,
	}

	return nil
}

func (r *repo) AddMessage(ctx context.Context, params *room.AddMessageParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomID)
	if err != nil {
		return err
	}

	state.messages = append(state.messages, params.Message)
	if len(state.messages) > r.maxMessages {
		trimmed := state.messages[len(state.messages)-r.trimTo:]
		state.messages = append([]room.Message(nil), trimmed...)
	}

	return nil
}

func (r *repo) GetMessages(ctx context.Context, roomID string) ([]room.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomID)
	if err != nil {
		return nil, err
	}

	messages := make([]room.Message, len(state.messages))
	copy(messages, state.messages)
	return messages, nil
}
