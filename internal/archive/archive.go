// Package archive keeps finished games for export. Nothing here is ever read
// back into a running session.
package archive

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/cheese-solo/internal/domain"
)

var ErrInvalidRecord = errors.New("archive: game record without id")

// Sink stores finished games keyed by game id. Saving the same id again
// replaces the earlier record.
type Sink interface {
	Save(ctx context.Context, rec domain.GameRecord) error
	Recent(ctx context.Context, limit int) ([]domain.GameRecord, error)
	Close() error
}

func validate(rec domain.GameRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return ErrInvalidRecord
	}
	return nil
}
