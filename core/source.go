package core

import (
	"bufio"
	"io"
)

// Source yields raw transport units one at a time: a line of text for
// event streams, a byte segment for binary bodies. Next returns io.EOF once
// the transport is exhausted.
//
// A Source that also implements io.Closer is released by the stream that
// owns it. Close may be called while Next is blocked in another goroutine.
type Source interface {
	Next() ([]byte, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() ([]byte, error)

// Next implements Source.
func (f SourceFunc) Next() ([]byte, error) { return f() }

// DefaultSegmentSize is the read size used for binary bodies.
const DefaultSegmentSize = 32 * 1024

// NewLineSource splits r into newline-terminated lines. If r implements
// io.Closer, so does the returned Source.
func NewLineSource(r io.Reader) Source {
	return withCloser(&lineSource{br: bufio.NewReader(r)}, r)
}

// NewSegmentSource reads r in segments of at most size bytes. If r
// implements io.Closer, so does the returned Source.
func NewSegmentSource(r io.Reader, size int) Source {
	if size <= 0 {
		size = DefaultSegmentSize
	}
	return withCloser(&segmentSource{r: r, buf: make([]byte, size)}, r)
}

type lineSource struct {
	br *bufio.Reader
}

func (s *lineSource) Next() ([]byte, error) {
	line, err := s.br.ReadBytes('\n')
	switch {
	case err == nil:
		return line, nil
	case err == io.EOF && len(line) > 0:
		// Final line without a trailing newline; EOF surfaces on the next call.
		return line, nil
	default:
		return nil, err
	}
}

type segmentSource struct {
	r   io.Reader
	buf []byte
}

// Next returns a view into the read buffer, valid until the next call.
func (s *segmentSource) Next() ([]byte, error) {
	n, err := s.r.Read(s.buf)
	if n > 0 {
		return s.buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return s.buf[:0], nil
}

type closingSource struct {
	Source
	io.Closer
}

func withCloser(s Source, r io.Reader) Source {
	if c, ok := r.(io.Closer); ok {
		return closingSource{Source: s, Closer: c}
	}
	return s
}

// releaseOf returns the release operation of src, or nil if it has none.
func releaseOf(src Source) func() error {
	if c, ok := src.(io.Closer); ok {
		return c.Close
	}
	return nil
}
