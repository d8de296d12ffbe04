package room

import "github.com/Arionyxx/cinesync/internal/playback"

const (
	SourceKindYouTube = "youtube"
	SourceKindFile    = "file"
)

type Participant struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	IsHost     bool   `json:"is_host"`
	LastSeenAt int64  `json:"last_seen_at"`
}

type Source struct {
	Kind    string `json:"kind"`
	URL     string `json:"url"`
	VideoID string `json:"video_id,omitempty"`
	Title   string `json:"title,omitempty"`
}

type Message struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	SentAt     int64  `json:"sent_at"`
}

type Room struct {
	RoomID       string         `json:"room_id"`
	HostID       string         `json:"host_id"`
	Playback     playback.State `json:"playback"`
	Source       *Source        `json:"source"`
	Participants []Participant  `json:"participants"`
	Messages     []Message      `json:"messages"`
}

// SyncState is a reconciliation snapshot extrapolated to the instant of the
// request: Position already includes elapsed playing time and UpdatedAt is
// that instant, so the receiver can run its own extrapolation from it.
type SyncState struct {
	IsPlaying bool    `json:"is_playing"`
	Position  float64 `json:"position"`
	Rate      float64 `json:"rate"`
	UpdatedAt int64   `json:"updated_at"`
	Source    *Source `json:"source"`
	HostID    string  `json:"host_id"`
}
