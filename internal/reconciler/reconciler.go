// Package reconciler runs on each client and reconciles the local player
// against snapshots distributed by the room. It decides between a hard
// correction (seek) and soft tracking (no-op), and keeps its own corrections
// from echoing back into the room as new host commands.
package reconciler

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/Arionyxx/cinesync/internal/playback"
)

// Player is the abstract capability set of whatever renders the video. The
// reconciler does not care whether it is a native element or an embed widget.
type Player interface {
	Play()
	Pause()
	SeekTo(seconds float64)
	SetRate(rate float64)
	CurrentTime() float64
	Duration() float64
}

// Trigger says why a snapshot arrived; the drift tolerance differs.
type Trigger int

const (
	// TriggerCommand is the application of an explicit host action
	// (play, pause, seek, rate change).
	TriggerCommand Trigger = iota
	// TriggerSync is a periodic drift-correction snapshot.
	TriggerSync
)

// A seek jump is visually disruptive, so explicit commands get more slack
// than periodic correction, where the user already expects passive catch-up.
const (
	commandDriftThreshold = 0.5
	syncDriftThreshold    = 0.35
)

// Intent is a local player interaction that should become a host command.
type Intent struct {
	Action   string  `json:"action"`
	Position float64 `json:"position"`
	Rate     float64 `json:"rate"`
}

const (
	IntentPlay    = "play"
	IntentPause   = "pause"
	IntentSeek    = "seek"
	IntentSetRate = "set_rate"
)

type Reconciler struct {
	player   Player
	onIntent func(Intent)
	onNotice func(string)
	logger   *slog.Logger

	// atomics, not a mutex: players may deliver their event callbacks
	// synchronously from inside the mutations Apply performs, and those
	// callbacks must still be able to consult the suppression flag
	isHost   atomic.Bool
	applying atomic.Bool

	now func() time.Time
}

func New(player Player, onIntent func(Intent), onNotice func(string), logger *slog.Logger) *Reconciler {
	return &Reconciler{
		player:   player,
		onIntent: onIntent,
		onNotice: onNotice,
		logger:   logger,
		now:      time.Now,
	}
}

// SetHost flips whether local interactions are forwarded as commands.
func (r *Reconciler) SetHost(isHost bool) {
	r.isHost.Store(isHost)
}

// Apply reconciles the local player against a distributed snapshot. Rate and
// status are applied unconditionally (cheap, no visual disruption); position
// is hard-corrected only beyond the trigger's drift threshold. Player
// mutations run with the suppression flag set so the player's own event
// listeners do not re-emit them as new host intents.
func (r *Reconciler) Apply(state playback.State, trigger Trigger) {
	r.applying.Store(true)
	defer r.applying.Store(false)

	target := playback.Position(state, r.now())
	current := r.player.CurrentTime()

	threshold := commandDriftThreshold
	if trigger == TriggerSync {
		threshold = syncDriftThreshold
	}

	if drift := math.Abs(current - target); drift > threshold {
		r.logger.Debug("correcting drift", "current", current, "target", target, "drift", drift)
		r.player.SeekTo(target)
	}

	r.player.SetRate(state.Rate)

	if state.IsPlaying {
		r.player.Play()
	} else {
		r.player.Pause()
	}
}

// OnLocalPlay handles the local player reporting it started playing.
func (r *Reconciler) OnLocalPlay(position, rate float64) {
	r.emit(Intent{Action: IntentPlay, Position: position, Rate: rate})
}

func (r *Reconciler) OnLocalPause(position float64) {
	r.emit(Intent{Action: IntentPause, Position: position})
}

func (r *Reconciler) OnLocalSeek(position float64) {
	r.emit(Intent{Action: IntentSeek, Position: position})
}

func (r *Reconciler) OnLocalRateChange(rate float64) {
	r.emit(Intent{Action: IntentSetRate, Rate: rate})
}

// emit forwards a local interaction as an outgoing command. Suppressed while
// a remote snapshot is being applied; non-hosts never emit and get a notice
// instead, so their interaction is rejected before it reaches the room.
func (r *Reconciler) emit(intent Intent) {
	if r.applying.Load() {
		return
	}

	if !r.isHost.Load() {
		if r.onNotice != nil {
			r.onNotice("only the host controls playback")
		}
		return
	}

	if r.onIntent != nil {
		r.onIntent(intent)
	}
}
