package state

import (
	"context"
	"errors"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Repository defines persistence operations for the controller snapshot.
type Repository interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snapshot *domain.Snapshot) error
}

// ErrNotFound is returned when nothing has been persisted yet.
var ErrNotFound = errors.New("state not found")
