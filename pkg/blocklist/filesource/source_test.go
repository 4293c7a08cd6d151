package filesource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"geosite/pkg/blocklist/filesource"
	"geosite/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func TestSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.conf")
	require.NoError(t, os.WriteFile(path, []byte("server=/foo.com/1.1.1.1\n"), 0o600))

	s := filesource.New(path)
	b, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "server=/foo.com/1.1.1.1\n", string(b))
	require.Equal(t, path, s.Location())
}

func TestSource_Fetch_Missing(t *testing.T) {
	s := filesource.New(filepath.Join(t.TempDir(), "nope.conf"))

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, serrors.ErrFetch)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_Fetch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := filesource.New("whatever").Fetch(ctx)
	require.ErrorIs(t, err, serrors.ErrTimeout)
}

func TestFromURL(t *testing.T) {
	cases := []struct {
		in   string
		path string
		ok   bool
	}{
		{in: "file:///var/lib/geosite/list.conf", path: "/var/lib/geosite/list.conf", ok: true},
		{in: "file://mirror/list.conf", path: "mirror/list.conf", ok: true},
		{in: "https://example.com/list.conf", ok: false},
	}

	for _, tc := range cases {
		s, ok := filesource.FromURL(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			require.Equal(t, tc.path, s.Location(), tc.in)
		}
	}
}
