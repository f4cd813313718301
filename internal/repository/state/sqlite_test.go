package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// newSQLite opens a repository in a temporary directory.
func newSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "catpoint.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

// TestSQLiteRepository_NotFound verifies an empty database reports ErrNotFound.
func TestSQLiteRepository_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newSQLite(t).Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteRepository_SaveLoad checks that saves replace the sensor set.
func TestSQLiteRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSQLite(t)
	want := testSnapshot()

	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want.AlarmStatus, got.AlarmStatus)
	require.Equal(t, want.ArmingStatus, got.ArmingStatus)
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	require.Equal(t, want.Sensors, got.Sensors)

	// Second save drops a sensor and changes statuses.
	want.Sensors = want.Sensors[1:]
	want.AlarmStatus = domain.NoAlarm
	want.ArmingStatus = domain.Disarmed
	require.NoError(t, repo.Save(ctx, want))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, got.AlarmStatus)
	require.Equal(t, domain.Disarmed, got.ArmingStatus)
	require.Len(t, got.Sensors, 1)
	require.Equal(t, "b2", got.Sensors[0].ID)
}
