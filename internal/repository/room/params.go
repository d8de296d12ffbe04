package room

import "github.com/Arionyxx/cinesync/internal/playback"

type SetParticipantParams struct {
	ParticipantID string
	Username      string
	JoinedAt      int64
	LastSeenAt    int64
	RoomID        string
}

type RemoveParticipantParams struct {
	ParticipantID string
	RoomID        string
}

type GetParticipantParams struct {
	ParticipantID string
	RoomID        string
}

type UpdateParticipantLastSeenParams struct {
	ParticipantID string
	LastSeenAt    int64
	RoomID        string
}

type SetHostParams struct {
	ParticipantID string
	RoomID        string
}

type SetPlayerParams struct {
	State  playback.State
	RoomID string
}

type SetSourceParams struct {
	Kind    string
	URL     string
	VideoID string
	Title   string
	RoomID  string
}

type AddMessageParams struct {
	Message Message
	RoomID  string
}
