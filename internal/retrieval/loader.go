package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ironready/coach-api/internal/metrics"
)

// ObjectGetter fetches a stored object by key.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Loader fills an Index from a local snapshot file, falling back to object
// storage when the file cannot be used.
type Loader struct {
	Index     *Index
	Path      string
	Objects   ObjectGetter // optional
	ObjectKey string
	Logger    *slog.Logger
}

// LoadFile reads and installs the snapshot at l.Path.
func (l *Loader) LoadFile() error {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return fmt.Errorf("read index snapshot: %w", err)
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	l.install(snap)
	l.Logger.Info("exercise index loaded", "source", l.Path, "embedder", snap.Embedder, "documents", len(snap.Entries))
	return nil
}

// LoadObject reads and installs the snapshot from object storage. When a
// local path is configured the fetched snapshot is cached there.
func (l *Loader) LoadObject(ctx context.Context) error {
	if l.Objects == nil {
		return fmt.Errorf("%w: no object storage configured", ErrIndexUnavailable)
	}
	data, err := l.Objects.GetObject(ctx, l.ObjectKey)
	if err != nil {
		return fmt.Errorf("fetch index snapshot %s: %w", l.ObjectKey, err)
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	l.install(snap)
	l.Logger.Info("exercise index loaded", "source", "s3://"+l.ObjectKey, "embedder", snap.Embedder, "documents", len(snap.Entries))

	if l.Path != "" {
		if err := os.WriteFile(l.Path, data, 0o644); err != nil {
			l.Logger.Warn("could not cache index snapshot", "path", l.Path, "error", err)
		}
	}
	return nil
}

func (l *Loader) install(snap *Snapshot) {
	l.Index.Swap(snap)
	metrics.IndexDocuments.Set(float64(len(snap.Entries)))
}

// Load tries the file first and object storage second.
func (l *Loader) Load(ctx context.Context) error {
	fileErr := l.LoadFile()
	if fileErr == nil {
		return nil
	}
	if l.Objects == nil {
		return fileErr
	}
	l.Logger.Warn("local index snapshot unusable, trying object storage", "error", fileErr)
	return l.LoadObject(ctx)
}

// Reload re-reads the snapshot on demand, from object storage when it is
// configured and from the local file otherwise.
func (l *Loader) Reload(ctx context.Context) error {
	if l.Objects != nil {
		return l.LoadObject(ctx)
	}
	return l.LoadFile()
}
