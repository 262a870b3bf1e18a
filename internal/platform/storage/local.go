// Package storage keeps uploaded files on local disk and hands out the public
// URL each one is served under.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// URLPrefix is the route the stored files are served from.
const URLPrefix = "/uploads/"

type Local struct {
	dir      string
	maxBytes int64
}

// NewLocal creates dir when it does not exist yet.
func NewLocal(dir string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &Local{dir: dir, maxBytes: maxBytes}, nil
}

func (l *Local) Dir() string { return l.dir }

// Save writes r under name and returns the file's public URL. Partial files
// are removed when the copy fails or exceeds the size limit.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(l.dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	src := r
	if l.maxBytes > 0 {
		src = io.LimitReader(r, l.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && l.maxBytes > 0 && n > l.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	log.Debug().Str("file", name).Int64("bytes", n).Msg("upload stored")
	return URLPrefix + name, nil
}

// Remove deletes the file behind url. Unknown files are not an error.
func (l *Local) Remove(ctx context.Context, url string) error {
	name := path.Base(strings.TrimPrefix(url, URLPrefix))
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
