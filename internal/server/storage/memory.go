package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

// Memory is an in-process Store for tests. It is not selectable by config.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
	// FailPut makes every Put fail with common.ErrStorageWrite.
	FailPut bool
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string][]byte), baseURL: baseURL}
}

func (m *Memory) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if m.FailPut {
		return 0, fmt.Errorf("%w: simulated failure", common.ErrStorageWrite)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	m.mu.Lock()
	m.objects[name] = buf.Bytes()
	m.mu.Unlock()
	return n, nil
}

func (m *Memory) URL(name string) string {
	return joinURL(m.baseURL, name)
}

// Get returns a stored object.
func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[name]
	return b, ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
