// Package filesource provides a blocklist.Source backed by a local file,
// for generating from a mirrored copy of the upstream list.
package filesource

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"geosite/pkg/blocklist"
	"geosite/pkg/serrors"
)

// Source reads the list from path on every Fetch.
type Source struct {
	path string
}

// New returns a Source reading path.
func New(path string) *Source {
	return &Source{path: path}
}

// FromURL returns a Source for a file:// URL and true, or nil and false when
// raw is not a file URL.
func FromURL(raw string) (*Source, bool) {
	if !strings.HasPrefix(raw, "file://") {
		return nil, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return New(strings.TrimPrefix(raw, "file://")), true
	}
	// file://relative/path parses the first segment as host
	if u.Host != "" {
		return New(u.Host + u.Path), true
	}

	return New(u.Path), true
}

// Location returns the file path.
func (s *Source) Location() string { return s.path }

// Fetch reads the whole file.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, serrors.Wrap(serrors.ErrTimeout, err, "fetch cancelled")
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "list file %s does not exist", s.path)
	}
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not read list file %s", s.path)
	}

	return b, nil
}

var _ blocklist.Source = (*Source)(nil)
