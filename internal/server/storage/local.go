package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/filex"
)

// Local stores photos in a directory on the server's filesystem.
type Local struct {
	dir     string
	baseURL string

	mu       sync.Mutex
	resolved string
}

// NewLocal returns a store writing into dir. The directory is created on
// the first Put.
func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: baseURL}
}

func (l *Local) ensureDir() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved != "" {
		return l.resolved, nil
	}
	dir, err := filex.EnsureDir(l.dir)
	if err != nil {
		return "", err
	}
	l.resolved = dir
	return dir, nil
}

// Dir returns the absolute upload directory, creating it if needed.
func (l *Local) Dir() (string, error) {
	return l.ensureDir()
}

func (l *Local) Put(ctx context.Context, name string, r io.Reader, _ int64, _ string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	dir, err := l.ensureDir()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	n, err := filex.WriteAtomic(dir, name, r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	return n, nil
}

func (l *Local) URL(name string) string {
	return joinURL(l.baseURL, name)
}
