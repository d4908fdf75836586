package combo

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("combo: session not found")
	ErrConflict = errors.New("combo: session already exists")
)

type Repository interface {
	Insert(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Prune removes sessions idle since before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}
