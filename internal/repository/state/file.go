package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// FileRepository persists the snapshot to a JSON file on disk.
// JSON is produced and consumed via protobuf JSON (protojson) so the file
// has the same shape as the API state messages.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	snapshot, err := pb.SnapshotFromProto(&message)
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return snapshot, nil
}

// Save writes the snapshot next to the target and renames it into place,
// so a crash never leaves a truncated state file behind.
func (r *FileRepository) Save(_ context.Context, snapshot *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(pb.SnapshotToProto(snapshot))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := r.path + ".tmp"

	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
