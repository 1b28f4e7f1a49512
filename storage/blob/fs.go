package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FSStore lays blobs out under a root directory, one file per key.
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob root")
	}
	return &FSStore{root: root}, nil
}

// path maps a key to a file under the root, refusing keys that escape it.
func (s *FSStore) path(key string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.root)) {
		return "", errors.Errorf("invalid key %q", key)
	}
	return path, nil
}

func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	path, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, errors.Wrap(err, "creating blob dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "creating blob file")
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return 0, errors.Wrap(err, "writing blob file")
	}
	return n, nil
}

func (s *FSStore) Open(ctx context.Context, key string) (Object, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "opening blob file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "statting blob file")
	}
	return &fsObject{file: f, size: info.Size()}, nil
}

func (s *FSStore) Stat(ctx context.Context, key string) (int64, error) {
	path, err := s.path(key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, errors.Wrap(err, "statting blob file")
	}
	return info.Size(), nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err = os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "removing blob file")
	}
	return nil
}

type fsObject struct {
	file *os.File
	size int64
}

func (o *fsObject) Seek(pos int64) error {
	_, err := o.file.Seek(pos, io.SeekStart)
	return errors.Wrap(err, "seeking blob file")
}

func (o *fsObject) Read(p []byte) (int, error) { return o.file.Read(p) }

func (o *fsObject) Size() int64 { return o.size }

func (o *fsObject) Close() error { return o.file.Close() }
