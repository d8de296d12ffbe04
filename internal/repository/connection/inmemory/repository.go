package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/repository/connection"
)

// repo maps websocket connections to participant ids both ways. Pull-mode
// participants never appear here; a missing conn just means that participant
// is polling.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[participantID] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = participantID
	r.idList[participantID] = conn

	r.logger.Debug("connection added", "participant_id", participantID)
	return nil
}

func (r *repo) RemoveByParticipantID(participantID string) (*websocket.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[participantID]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, participantID)

	r.logger.Debug("connection removed", "participant_id", participantID)
	return conn, nil
}

func (r *repo) GetParticipantID(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participantID, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return participantID, nil
}

func (r *repo) GetConn(participantID string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[participantID]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
