package content

import (
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/storage/blob"
)

// DefaultChunkSize is the number of bytes requested from the source per read.
// It balances memory footprint against read-call overhead.
const DefaultChunkSize = 1024

// ErrInvalidRange is returned when a requested byte range does not lie within
// [0, length).
var ErrInvalidRange = errors.New("invalid byte range")

// ChunkedReader streams a stored object out of a seekable source in
// fixed-size chunks, never holding more than one chunk in memory. The
// declared length is authoritative: streams stop after exactly that many
// bytes and a source holding fewer surfaces a short-read error.
type ChunkedReader struct {
	src       blob.Source
	length    int64
	chunkSize int
	metrics   Metrics
}

func NewChunkedReader(src blob.Source, length int64) *ChunkedReader {
	return NewChunkedReaderSize(src, length, DefaultChunkSize)
}

// NewChunkedReaderSize is like NewChunkedReader with an explicit chunk size.
func NewChunkedReaderSize(src blob.Source, length int64, chunkSize int) *ChunkedReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedReader{src: src, length: length, chunkSize: chunkSize, metrics: noOpMetrics{}}
}

func (r *ChunkedReader) Length() int64 { return r.length }

// Stream returns the full object as a chunk stream. A zero-length object
// yields no chunks.
func (r *ChunkedReader) Stream() *ChunkStream {
	return &ChunkStream{src: r.src, chunkSize: r.chunkSize, metrics: r.metrics, off: 0, remaining: r.length}
}

// StreamRange returns the inclusive byte range [first, last] as a chunk
// stream, exactly last-first+1 bytes. It fails fast with ErrInvalidRange
// unless 0 <= first <= last < length.
func (r *ChunkedReader) StreamRange(first, last int64) (*ChunkStream, error) {
	if first < 0 || first > last || last >= r.length {
		return nil, errors.Wrapf(ErrInvalidRange, "bytes=%d-%d of %d", first, last, r.length)
	}
	return &ChunkStream{src: r.src, chunkSize: r.chunkSize, metrics: r.metrics, off: first, remaining: last - first + 1}, nil
}

// ChunkStream is a lazy, finite sequence of byte chunks, consumable exactly
// once. It owns the source cursor while it is consumed and is not safe for
// concurrent use; create one stream per request. Abandoning a stream early
// needs no cleanup, the source is owned by the caller.
type ChunkStream struct {
	src       blob.Source
	chunkSize int
	metrics   Metrics

	off       int64
	remaining int64
	buf       []byte // unread tail of the last chunk, for Read
	err       error  // sticky
}

// Next returns the next chunk, truncated so the stream never yields more
// than the declared byte count. It returns io.EOF after the final chunk and
// repeats any earlier failure. The source cursor position cannot be trusted
// between calls, so the stream seeks to the absolute offset before every
// read.
func (s *ChunkStream) Next() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.remaining == 0 {
		s.err = io.EOF
		return nil, io.EOF
	}

	size := int64(s.chunkSize)
	if s.remaining < size {
		size = s.remaining
	}
	chunk := make([]byte, size)

	var n int
	for int64(n) < size {
		if err := s.src.Seek(s.off + int64(n)); err != nil {
			s.err = err
			return nil, err
		}
		m, err := s.src.Read(chunk[n:])
		n += m
		if err == io.EOF || (err == nil && m == 0) {
			break
		}
		if err != nil {
			s.err = err
			return nil, err
		}
	}
	if int64(n) < size {
		s.err = errors.Wrapf(io.ErrUnexpectedEOF, "short read at offset %d: got %d of %d bytes", s.off, n, size)
		return nil, s.err
	}

	s.off += size
	s.remaining -= size
	s.metrics.ChunksStreamed(1)
	s.metrics.BytesStreamed(size)
	return chunk, nil
}

// Read implements io.Reader over the remaining chunks so a stream can feed a
// response body writer directly.
func (s *ChunkStream) Read(p []byte) (int, error) {
	if len(s.buf) == 0 {
		chunk, err := s.Next()
		if err != nil {
			return 0, err
		}
		s.buf = chunk
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}
