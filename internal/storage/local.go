package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local writes into a directory on disk.
type Local struct {
	dir string
}

// NewLocal returns a store rooted at dir. Nothing is created until Prepare.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Dir returns the root directory.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Prepare(_ context.Context) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func (l *Local) Put(_ context.Context, name string, data []byte) error {
	p := l.Location(name)
	if dir := filepath.Dir(p); dir != l.dir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(p, data, 0o644)
}

func (l *Local) Location(name string) string {
	return filepath.Join(l.dir, filepath.FromSlash(name))
}

func (l *Local) Close() error { return nil }
