package blob

import (
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps blobs in process memory. It is used in tests and as the
// default backend when no other store is configured.
type MemoryStore struct {
	mutex sync.RWMutex
	blobs map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading blob")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *MemoryStore) Open(ctx context.Context, key string) (Object, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryObject{data: data}, nil
}

func (s *MemoryStore) Stat(ctx context.Context, key string) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return 0, ErrNotFound
	}
	return int64(len(data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

// memoryObject reads over a byte slice. Its cursor advances by the full
// buffer size on every Read, even past the end of the data; consumers are
// expected to Seek to an absolute offset before each Read.
type memoryObject struct {
	data []byte
	pos  int64
}

func (o *memoryObject) Seek(pos int64) error {
	if pos < 0 {
		return errors.Errorf("invalid seek position %d", pos)
	}
	o.pos = pos
	return nil
}

func (o *memoryObject) Read(p []byte) (int, error) {
	if o.pos >= int64(len(o.data)) {
		return 0, io.EOF
	}
	n := copy(p, o.data[o.pos:])
	o.pos += int64(len(p))
	return n, nil
}

func (o *memoryObject) Size() int64 { return int64(len(o.data)) }

func (o *memoryObject) Close() error { return nil }
