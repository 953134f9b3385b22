package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/internal/selector"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

// DefaultThinkDelay is the pause before the computer replies.
const DefaultThinkDelay = 750 * time.Millisecond

// Archive receives finished games. archive.Sink satisfies it.
type Archive interface {
	Save(ctx context.Context, rec domain.GameRecord) error
}

// Observer is called with a fresh snapshot after every accepted intent and
// computer move, outside the controller lock.
type Observer func(chessdto.Snapshot)

type Option func(*Controller)

func WithPlayerColor(c domain.Color) Option {
	return func(ctl *Controller) {
		if c.Valid() {
			ctl.playerColor = c
		}
	}
}

func WithThinkDelay(d time.Duration) Option {
	return func(ctl *Controller) {
		if d >= 0 {
			ctl.thinkDelay = d
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(ctl *Controller) {
		if s != nil {
			ctl.scheduler = s
		}
	}
}

// WithRand pins the selector's randomness, e.g. selector.NewSource(seed).
func WithRand(src *selector.Source) Option {
	return func(ctl *Controller) {
		if src != nil {
			ctl.rand = src
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

func WithArchive(a Archive) Option {
	return func(ctl *Controller) { ctl.archive = a }
}

func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observer = o }
}

// WithClock overrides time.Now for game timestamps.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) {
		if now != nil {
			ctl.now = now
		}
	}
}
