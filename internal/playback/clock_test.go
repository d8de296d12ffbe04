package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionPaused(t *testing.T) {
	base := time.Now()
	st := State{IsPlaying: false, Position: 42.5, Rate: 2, UpdatedAt: base.UnixMilli()}

	for _, delta := range []time.Duration{0, time.Second, time.Minute, 3 * time.Hour} {
		assert.Equal(t, 42.5, Position(st, base.Add(delta)))
	}
}

func TestPositionPlaying(t *testing.T) {
	base := time.Now()

	cases := []struct {
		name  string
		at    float64
		rate  float64
		delta time.Duration
		want  float64
	}{
		{"one second at normal rate", 0, 1, time.Second, 1},
		{"five seconds at normal rate", 0, 1, 5 * time.Second, 5},
		{"double rate", 10, 2, 3 * time.Second, 16},
		{"half rate", 10, 0.5, 4 * time.Second, 12},
		{"no elapsed time", 7, 1.5, 0, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := State{IsPlaying: true, Position: tc.at, Rate: tc.rate, UpdatedAt: base.UnixMilli()}
			assert.InDelta(t, tc.want, Position(st, base.Add(tc.delta)), 1e-9)
		})
	}
}

func TestPositionClampsAtZero(t *testing.T) {
	base := time.Now()
	st := State{IsPlaying: true, Position: 1, Rate: 1, UpdatedAt: base.UnixMilli()}

	// snapshot stamped in the future relative to a skewed local clock
	assert.Equal(t, float64(0), Position(st, base.Add(-5*time.Second)))
}

func TestNewPausedState(t *testing.T) {
	now := time.Now()
	st := NewPausedState(now)

	assert.False(t, st.IsPlaying)
	assert.Equal(t, float64(0), st.Position)
	assert.Equal(t, float64(1), st.Rate)
	assert.Equal(t, now.UnixMilli(), st.UpdatedAt)
}
