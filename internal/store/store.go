// Package store persists conversation records between turns.
package store

import (
	"context"

	"github.com/tripforge/trip-planner/internal/model"
)

// SessionStore keeps one record per session key. Implementations store and
// return copies, so callers may mutate what they get back freely.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*model.Record, bool, error)
	Save(ctx context.Context, rec *model.Record) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}
