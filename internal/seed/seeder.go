package seed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/storage"
	"go.uber.org/zap"
)

// SnapshotStore reads and writes complete snapshots
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*domain.Snapshot, error)
	ImportSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// Seeder moves snapshot documents between object storage and the database
type Seeder struct {
	store   SnapshotStore
	objects storage.Storage
	logger  *zap.Logger
}

func NewSeeder(store SnapshotStore, objects storage.Storage, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, objects: objects, logger: logger}
}

// Import reads the named object and writes every record in one transaction
func (s *Seeder) Import(ctx context.Context, object string) (Counts, error) {
	rc, err := s.objects.Get(ctx, object)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to open snapshot %s: %w", object, err)
	}
	defer rc.Close()

	snap, err := Decode(rc)
	if err != nil {
		return Counts{}, err
	}
	if err := s.store.ImportSnapshot(ctx, snap); err != nil {
		return Counts{}, fmt.Errorf("failed to import snapshot %s: %w", object, err)
	}

	counts := CountsOf(snap)
	s.logger.Info("Snapshot imported",
		zap.String("object", object),
		zap.Stringer("counts", counts),
	)
	return counts, nil
}

// Export writes the current database contents to the named object
func (s *Seeder) Export(ctx context.Context, object string) (Counts, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return Counts{}, err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return Counts{}, err
	}
	size, err := s.objects.Put(ctx, object, "application/json", &buf)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to store snapshot %s: %w", object, err)
	}

	counts := CountsOf(snap)
	s.logger.Info("Snapshot exported",
		zap.String("object", object),
		zap.Int64("bytes", size),
		zap.Stringer("counts", counts),
	)
	return counts, nil
}
