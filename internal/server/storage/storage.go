// Package storage keeps photo content. Objects are written once under a
// server-generated name and never rewritten or deleted.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Store persists photo bytes and derives their public URL.
type Store interface {
	// Put writes r under name and returns the number of bytes stored.
	// Failures wrap common.ErrStorageWrite.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error)
	// URL returns the public URL of name. It is a pure function of name.
	URL(name string) string
}

func checkName(name string) error {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: bad object name %q", common.ErrStorageWrite, name)
	}
	return nil
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
