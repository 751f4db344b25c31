package model

import (
	"errors"
	"io"
	"iter"
	"sync"
)

// ChunkSize is the number of bytes pulled from the upstream per chunk.
const ChunkSize = 16384

// ChunkStream is a single-pass sequence of fixed-size chunks read from an open
// upstream body. Every chunk is ChunkSize bytes except possibly the last.
//
// The slice returned by Next is reused and only valid until the next call.
// Close must be called once the stream is no longer needed; Chunks does this
// itself.
type ChunkStream struct {
	body io.ReadCloser
	buf  []byte
	done bool

	closeOnce sync.Once
	closeErr  error
}

// NewChunkStream wraps body. A size <= 0 selects ChunkSize.
func NewChunkStream(body io.ReadCloser, size int) *ChunkStream {
	if size <= 0 {
		size = ChunkSize
	}
	return &ChunkStream{body: body, buf: make([]byte, size)}
}

// Next pulls the next chunk. It returns io.EOF once the body is exhausted. A
// read failure is returned together with whatever bytes arrived before it.
func (s *ChunkStream) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}

	n, err := io.ReadFull(s.body, s.buf)
	switch {
	case err == nil:
		return s.buf[:n], nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		if n == 0 {
			return nil, io.EOF
		}
		return s.buf[:n], nil
	default:
		s.done = true
		return s.buf[:n], err
	}
}

// Chunks yields the remaining chunks in upstream order. The stream is closed
// when the loop finishes, fails or is broken out of.
func (s *ChunkStream) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		defer func() { _ = s.Close() }()
		for {
			chunk, err := s.Next()
			if len(chunk) > 0 && !yield(chunk, nil) {
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// Close releases the upstream connection. It is safe to call more than once.
func (s *ChunkStream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
