package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postboard/service/internal/naming"
)

func newTestStore(t *testing.T, maxSize int64) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(filepath.Join(t.TempDir(), "uploads"), maxSize)
	require.NoError(t, err)
	return s
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewDiskStore_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := NewDiskStore(dir, naming.MaxImageSize)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewDiskStore_EmptyRoot(t *testing.T) {
	_, err := NewDiskStore("", naming.MaxImageSize)
	assert.Error(t, err)
}

func TestDiskStore_Save(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	data := bytes.Repeat([]byte{0xff}, 2048)

	id, err := s.Save(context.Background(), "JPG", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, naming.IsIdentifier(id), id)
	assert.True(t, strings.HasSuffix(id, ".JPG"))

	got, err := os.ReadFile(filepath.Join(s.Root(), id))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, []string{id}, dirEntries(t, s.Root()))
}

func TestDiskStore_Save_ExactlyAtCeiling(t *testing.T) {
	s := newTestStore(t, 1024)
	id, err := s.Save(context.Background(), "png", bytes.NewReader(make([]byte, 1024)))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(s.Root(), id))
}

func TestDiskStore_Save_TooLargeLeavesNothing(t *testing.T) {
	s := newTestStore(t, 1024)
	_, err := s.Save(context.Background(), "png", bytes.NewReader(make([]byte, 1025)))
	assert.ErrorIs(t, err, naming.ErrPayloadTooLarge)
	assert.Empty(t, dirEntries(t, s.Root()))
}

type failingReader struct{ after int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after <= 0 {
		return 0, errors.New("connection reset")
	}
	n := len(p)
	if n > r.after {
		n = r.after
	}
	r.after -= n
	return n, nil
}

func TestDiskStore_Save_ReadErrorLeavesNothing(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	_, err := s.Save(context.Background(), "png", &failingReader{after: 100})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWriteFailure)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, dirEntries(t, s.Root()))
}

func TestDiskStore_Save_RejectsUnsafeExtension(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	_, err := s.Save(context.Background(), "../evil", strings.NewReader("x"))
	assert.ErrorIs(t, err, naming.ErrInvalidExtension)
	assert.Empty(t, dirEntries(t, s.Root()))
}

func TestDiskStore_Save_RegeneratesTakenName(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	taken := "1702986000000-aaaaaaa.png"
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), taken), []byte("original"), 0o644))

	names := []string{taken, "1702986000001-bbbbbbb.png"}
	s.generate = func(string) (string, error) {
		n := names[0]
		names = names[1:]
		return n, nil
	}

	id, err := s.Save(context.Background(), "png", strings.NewReader("second"))
	require.NoError(t, err)
	assert.Equal(t, "1702986000001-bbbbbbb.png", id)

	orig, err := os.ReadFile(filepath.Join(s.Root(), taken))
	require.NoError(t, err)
	assert.Equal(t, "original", string(orig))
}

func TestDiskStore_Save_GivesUpAfterRepeatedCollisions(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	taken := "1702986000000-aaaaaaa.png"
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), taken), []byte("original"), 0o644))
	s.generate = func(string) (string, error) { return taken, nil }

	_, err := s.Save(context.Background(), "png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrWriteFailure)
	assert.Equal(t, []string{taken}, dirEntries(t, s.Root()))
}

func TestDiskStore_Save_CanceledContext(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirEntries(t, s.Root()))
}

func TestDiskStore_Open(t *testing.T) {
	s := newTestStore(t, naming.MaxImageSize)
	id, err := s.Save(context.Background(), "gif", strings.NewReader("GIF89a"))
	require.NoError(t, err)

	f, err := s.Open(id)
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(b))

	for _, name := range []string{"../secret", ".upload-123", "1702986000000-zzzzzzz.png", ""} {
		_, err := s.Open(name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}
