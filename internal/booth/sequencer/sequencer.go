// Package sequencer drives the timed capture loop of a booth session: a
// countdown before each shot, a flash on capture, and a short pause between
// shots.
package sequencer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNoSnapshot indicates the sequencer was started without a snapshot hook.
var ErrNoSnapshot = errors.New("no snapshot hook provided")

const (
	defaultCountdownFrom = 3
	defaultTick          = time.Second
	defaultPause         = 1500 * time.Millisecond
)

// Config holds the timing parameters of the capture loop.
type Config struct {
	// CountdownFrom is the first number announced before each shot.
	CountdownFrom int
	// Tick is the interval between countdown announcements.
	Tick time.Duration
	// Pause is the wait between a shot and the next countdown.
	Pause time.Duration
}

func (c Config) withDefaults() Config {
	if c.CountdownFrom <= 0 {
		c.CountdownFrom = defaultCountdownFrom
	}
	if c.Tick <= 0 {
		c.Tick = defaultTick
	}
	if c.Pause <= 0 {
		c.Pause = defaultPause
	}
	return c
}

// Hooks are the callbacks the sequencer invokes while running. Snapshot is
// required; the rest are optional progress signals.
type Hooks struct {
	// Countdown is called with each remaining tick value, ending with 0
	// right before the shot is taken.
	Countdown func(remaining int)
	// Flash is called at the moment of capture.
	Flash func()
	// Snapshot produces the still image for the current shot.
	Snapshot func(ctx context.Context) ([]byte, error)
	// Shot is called after each successful capture with the shot index.
	Shot func(index int, image []byte)
}

// Sequencer runs timed capture loops. A single Sequencer may run multiple
// loops, though never concurrently for the same session.
type Sequencer struct {
	config Config
}

// New creates a Sequencer, applying defaults to unset timing parameters.
func New(config Config) *Sequencer {
	return &Sequencer{
		config: config.withDefaults(),
	}
}

// Run captures shotCount images and returns them in capture order. When the
// context is canceled or a snapshot fails, the images collected so far are
// returned alongside the error so a partial sequence is never lost silently.
func (s *Sequencer) Run(ctx context.Context, shotCount int, hooks Hooks) ([][]byte, error) {
	if hooks.Snapshot == nil {
		return nil, ErrNoSnapshot
	}

	images := make([][]byte, 0, shotCount)
	for shot := 0; shot < shotCount; shot++ {
		for remaining := s.config.CountdownFrom; remaining > 0; remaining-- {
			if hooks.Countdown != nil {
				hooks.Countdown(remaining)
			}
			if err := sleepContext(ctx, s.config.Tick); err != nil {
				return images, err
			}
		}
		if hooks.Countdown != nil {
			hooks.Countdown(0)
		}
		if hooks.Flash != nil {
			hooks.Flash()
		}

		image, err := hooks.Snapshot(ctx)
		if err != nil {
			slog.Warn("sequencer: snapshot failed", "shot", shot, "error", err)
			return images, err
		}
		images = append(images, image)
		if hooks.Shot != nil {
			hooks.Shot(shot, image)
		}

		if shot < shotCount-1 {
			if err := sleepContext(ctx, s.config.Pause); err != nil {
				return images, err
			}
		}
	}
	return images, nil
}

// sleepContext waits for the duration unless the context ends first.
func sleepContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
