package narrator

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// FilePlayer "plays" a clip by writing it to a directory, one file per
// narration, named by a time-ordered ULID
type FilePlayer struct {
	dir string
}

func NewFilePlayer(dir string) (*FilePlayer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir: %w", err)
	}
	return &FilePlayer{dir: dir}, nil
}

func (p *FilePlayer) Play(ctx context.Context, audio []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return fmt.Errorf("failed to name clip: %w", err)
	}

	path := filepath.Join(p.dir, id.String()+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("failed to write clip: %w", err)
	}
	return nil
}
