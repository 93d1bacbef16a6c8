package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/emberline/ecscore/internal/snapshot"
	"github.com/emberline/ecscore/internal/stream"
)

// FileSink writes each snapshot as one frame to <dir>/<world>-<tick>.snap.
type FileSink struct {
	dir string
}

var _ snapshot.Sink = (*FileSink)(nil)

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir %s: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_.-]+`)

// Path returns the file a record is written to.
func (s *FileSink) Path(rec snapshot.Record) string {
	name := unsafeName.ReplaceAllString(rec.World, "_")
	return filepath.Join(s.dir, fmt.Sprintf("%s-%d.snap", name, rec.Tick))
}

// Save writes the record to a temporary file and renames it into place.
func (s *FileSink) Save(_ context.Context, rec snapshot.Record) error {
	path := s.Path(rec)
	f, err := os.CreateTemp(s.dir, ".snap-*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	tmp := f.Name()
	if err := stream.WriteFrame(f, rec.Data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot file: %w", err)
	}
	return nil
}

// ReadFile reads a snapshot written by FileSink.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := stream.ReadFrame(f, 0)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return data, nil
}
