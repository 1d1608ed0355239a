package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/postboard/service/internal/naming"
)

// maxNameAttempts bounds how many fresh identifiers Save tries when the
// generated name is already taken on disk.
const maxNameAttempts = 5

// ErrNotFound is returned by Open for names that are not stored objects.
var ErrNotFound = errors.New("object not found")

// DiskStore writes uploads into one flat directory, one file per identifier.
// Files only appear under their final name once fully written, so readers
// never see a truncated upload.
type DiskStore struct {
	root     string
	maxSize  int64
	generate func(ext string) (string, error)
}

// NewDiskStore prepares root for uploads and returns a store writing into it.
// Creating the directory is idempotent and safe against concurrent creators.
func NewDiskStore(root string, maxSize int64) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("storage: upload directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload directory %q: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve upload directory %q: %w", root, err)
	}
	return &DiskStore{
		root:     abs,
		maxSize:  maxSize,
		generate: naming.GenerateIdentifier,
	}, nil
}

// Root returns the absolute upload directory.
func (s *DiskStore) Root() string {
	return s.root
}

// Save streams r to disk under a freshly generated identifier for ext and
// returns that identifier. More than maxSize bytes yields
// naming.ErrPayloadTooLarge; in every failure case nothing is left behind.
func (s *DiskStore) Save(ctx context.Context, ext string, r io.Reader) (string, error) {
	if err := naming.CheckExtension(ext); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrWriteFailure, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Either linked under its final name or abandoned; the temp entry goes either way.
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("storage: remove temp file", "path", tmpName, "error", rmErr)
		}
	}()

	src := &sourceReader{r: io.LimitReader(r, s.maxSize+1)}
	n, err := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if src.err != nil {
		return "", fmt.Errorf("read upload: %w", src.err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: write upload: %w", ErrWriteFailure, err)
	}
	if n > s.maxSize {
		return "", naming.ErrPayloadTooLarge
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: close temp file: %w", ErrWriteFailure, closeErr)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("%w: chmod: %w", ErrWriteFailure, err)
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		id, err := s.generate(ext)
		if err != nil {
			return "", err
		}
		// Link refuses to replace an existing file, which is the no-overwrite guarantee.
		err = os.Link(tmpName, filepath.Join(s.root, id))
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: publish %q: %w", ErrWriteFailure, id, err)
		}
		slog.Warn("storage: identifier already taken, regenerating", "id", id)
	}
	return "", fmt.Errorf("%w: no free identifier after %d attempts", ErrWriteFailure, maxNameAttempts)
}

// Open returns the stored object called name. Anything that is not an issued
// identifier is reported as ErrNotFound without touching the filesystem.
func (s *DiskStore) Open(name string) (*os.File, error) {
	if !naming.IsIdentifier(name) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", name, err)
	}
	return f, nil
}

// sourceReader remembers read errors so Save can tell a failing client apart
// from a failing disk.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
