// Package sessionbuilder wires configuration into a running session.
package sessionbuilder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/cheese-solo/internal/archive"
	"github.com/park285/cheese-solo/internal/config"
	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/internal/httpapi"
	"github.com/park285/cheese-solo/internal/rules"
	"github.com/park285/cheese-solo/internal/selector"
	"github.com/park285/cheese-solo/internal/session"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

type Deps struct {
	Session *session.Controller
	Hub     *httpapi.Hub
	// Archive is nil when the backend is "none".
	Archive archive.Sink
	Config  *config.AppConfig
}

// Option adjusts the controller before it is built; tests inject a manual
// scheduler here.
type Option = session.Option

// New builds the archive, push hub and controller. Observers receive every
// snapshot after the hub does.
func New(cfg *config.AppConfig, logger *zap.Logger, observers []session.Observer, opts ...Option) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sink, err := openArchive(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}

	hub := httpapi.NewHub()
	notify := func(s chessdto.Snapshot) {
		hub.Publish(s)
		for _, o := range observers {
			if o != nil {
				o(s)
			}
		}
	}

	base := []session.Option{
		session.WithPlayerColor(domain.Color(cfg.PlayerColor)),
		session.WithThinkDelay(cfg.ThinkDelay()),
		session.WithRand(selector.NewSource(cfg.RandomSeed)),
		session.WithLogger(logger),
		session.WithObserver(notify),
	}
	if sink != nil {
		base = append(base, session.WithArchive(sink))
	}
	ctrl := session.New(func() session.Board { return rules.NewGame() }, append(base, opts...)...)

	logger.Info("session_ready",
		zap.String("player_color", cfg.PlayerColor),
		zap.String("archive", cfg.Archive.Backend),
		zap.Duration("think_delay", cfg.ThinkDelay()),
	)
	return &Deps{Session: ctrl, Hub: hub, Archive: sink, Config: cfg}, nil
}

// Games returns the archive as a lister, or nil without one.
func (d *Deps) Games() httpapi.GameLister {
	if d == nil || d.Archive == nil {
		return nil
	}
	return d.Archive
}

func (d *Deps) Close() error {
	if d == nil || d.Archive == nil {
		return nil
	}
	return d.Archive.Close()
}

func openArchive(cfg config.ArchiveConfig) (archive.Sink, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return archive.NewMemory(), nil
	case "redis":
		return archive.NewRedis(cfg.RedisURL, cfg.TTL())
	case "postgres":
		return archive.NewPostgres(cfg.DatabaseURL)
	default:
		return nil, errors.New("unknown archive backend: " + cfg.Backend)
	}
}
