package playback

import "time"

// State is an immutable snapshot of the canonical playhead. UpdatedAt is the
// wall-clock instant (unix milliseconds) the snapshot was issued, not a video
// timestamp: as of UpdatedAt the playhead was at Position and, if playing,
// keeps advancing at Rate times real time.
type State struct {
	IsPlaying bool    `json:"is_playing" redis:"is_playing"`
	Position  float64 `json:"position" redis:"position"`
	Rate      float64 `json:"rate" redis:"rate"`
	UpdatedAt int64   `json:"updated_at" redis:"updated_at"`
}

// NewPausedState returns the default playback state: paused at zero, rate 1.
func NewPausedState(now time.Time) State {
	return State{
		IsPlaying: false,
		Position:  0,
		Rate:      1,
		UpdatedAt: now.UnixMilli(),
	}
}

// Position extrapolates the playhead position at the given instant. Paused
// snapshots stay put; playing snapshots advance linearly at the recorded
// rate. The result is clamped at zero. Pure, the single source of truth for
// "what time is it in the video right now" on both server and client.
func Position(st State, now time.Time) float64 {
	pos := st.Position
	if st.IsPlaying {
		elapsed := float64(now.UnixMilli()-st.UpdatedAt) / 1000
		pos += elapsed * st.Rate
	}

	if pos < 0 {
		return 0
	}

	return pos
}
