package local

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewCreatesMissingBaseDir(t *testing.T) {
	t.Parallel()

	baseDir := filepath.Join(t.TempDir(), "blobs")
	_, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	info, err := os.Stat(baseDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestPutObjectWritesFile(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	s, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	uri, err := s.PutObject(context.Background(), "favicons/abc.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(baseDir, "favicons", "abc.png"), uri)

	got, err := os.ReadFile(filepath.Join(baseDir, "favicons", "abc.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), got)
}

func TestPutObjectOverwrites(t *testing.T) {
	t.Parallel()

	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.PutObject(ctx, "favicons/abc.png", "image/png", bytes.NewReader([]byte("old")))
	require.NoError(t, err)
	uri, err := s.PutObject(ctx, "favicons/abc.png", "image/png", bytes.NewReader([]byte("new")))
	require.NoError(t, err)

	got, err := os.ReadFile(uri[len("file://"):])
	require.NoError(t, err)
	require.Equal(t, []byte("new"), got)
}

func TestPutObjectRejectsTraversal(t *testing.T) {
	t.Parallel()

	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.PutObject(context.Background(), "../outside.png", "image/png", bytes.NewReader([]byte("x")))
	require.Error(t, err)

	_, err = s.PutObject(context.Background(), "", "image/png", bytes.NewReader([]byte("x")))
	require.Error(t, err)
}
