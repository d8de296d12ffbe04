package room

// Participant is the stored representation of a room member. JoinedAt keeps
// the join order authoritative for host handover; LastSeenAt is the pull-mode
// heartbeat the reaper checks.
type Participant struct {
	Username   string `redis:"username" json:"username"`
	JoinedAt   int64  `redis:"joined_at" json:"joined_at"`
	LastSeenAt int64  `redis:"last_seen_at" json:"last_seen_at"`
}

type Source struct {
	Kind    string `redis:"kind" json:"kind"`
	URL     string `redis:"url" json:"url"`
	VideoID string `redis:"video_id" json:"video_id"`
	Title   string `redis:"title" json:"title"`
}

type Message struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	SentAt     int64  `json:"sent_at"`
}
