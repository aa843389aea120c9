package core

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// StreamOwner is the client a stream reports through: it translates
// transport failures and supplies the logger. Streams never mutate it.
type StreamOwner interface {
	ErrorTranslator
	Logger() *zap.Logger
}

type streamOwner struct {
	ErrorTranslator
	log *zap.Logger
}

func (o streamOwner) Logger() *zap.Logger { return o.log }

// NewStreamOwner pairs a translator and a logger. A nil translator uses
// HTTPTranslator; a nil logger discards output.
func NewStreamOwner(t ErrorTranslator, log *zap.Logger) StreamOwner {
	if t == nil {
		t = HTTPTranslator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return streamOwner{ErrorTranslator: t, log: log}
}

// pullFunc fetches the next raw unit. It is the only place a stream waits.
type pullFunc func(ctx context.Context) ([]byte, error)

// streamCore holds the decode, translate and release policy shared by
// Stream and AsyncStream. Each flavor supplies its own pull primitive.
type streamCore[T any] struct {
	decoder Decoder[T]
	owner   StreamOwner
	release func() error
	closed  atomic.Bool

	// taps observe delivered chunks; hooks run once when the stream closes.
	// Both are registered before the stream is handed to a caller.
	taps  []func(T)
	hooks []func(error)
}

func newStreamCore[T any](dec Decoder[T], owner StreamOwner, release func() error) *streamCore[T] {
	if owner == nil {
		owner = NewStreamOwner(nil, nil)
	}
	return &streamCore[T]{decoder: dec, owner: owner, release: release}
}

func (c *streamCore[T]) advance(ctx context.Context, pull pullFunc) (T, error) {
	var zero T
	for {
		if c.closed.Load() {
			return zero, io.EOF
		}

		unit, err := pull(ctx)
		if c.closed.Load() {
			return zero, io.EOF
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.shutdown(nil)
				return zero, io.EOF
			}
			var aw abandonedWait
			if errors.As(err, &aw) {
				// The waiting caller gave up; the stream stays open.
				return zero, aw.err
			}
			terr := c.owner.Translate(err)
			c.shutdown(terr)
			return zero, terr
		}

		chunk, sig, err := c.decoder.Decode(unit)
		if err != nil {
			terr := c.owner.Translate(err)
			c.shutdown(terr)
			return zero, terr
		}
		switch sig {
		case SignalSkip:
			continue
		case SignalEnd:
			c.shutdown(nil)
			return zero, io.EOF
		}

		for _, tap := range c.taps {
			tap(chunk)
		}
		return chunk, nil
	}
}

// shutdown performs the single terminal transition. cause is the error that
// ended the stream, nil for exhaustion or an explicit close.
func (c *streamCore[T]) shutdown(cause error) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.release != nil {
		if err := c.release(); err != nil {
			log := c.owner.Logger()
			if log == nil {
				log = zap.NewNop()
			}
			log.Debug("stream release failed", zap.Error(err))
		}
	}
	for _, hook := range c.hooks {
		hook(cause)
	}
}

// Stream is a blocking, pull-based iterator over a streamed response.
//
// Next returns chunks in transport order and io.EOF once the stream ends.
// Any other error is fatal: the stream is closed and later calls return
// io.EOF. Callers must Close the stream on every exit path; Close is
// idempotent and always returns nil.
//
// A Stream is not safe for concurrent calls to Next. Close may be called
// from any goroutine.
type Stream[T any] struct {
	core *streamCore[T]
	src  Source
}

// NewStream creates a blocking stream that exclusively owns src.
func NewStream[T any](src Source, dec Decoder[T], owner StreamOwner) *Stream[T] {
	return &Stream[T]{
		core: newStreamCore(dec, owner, releaseOf(src)),
		src:  src,
	}
}

// Next blocks until the next chunk is available.
func (s *Stream[T]) Next() (T, error) {
	return s.core.advance(context.Background(), s.pull)
}

func (s *Stream[T]) pull(context.Context) ([]byte, error) {
	return s.src.Next()
}

// Close releases the underlying transport. It never fails.
func (s *Stream[T]) Close() error {
	s.core.shutdown(nil)
	return nil
}

// Closed reports whether the stream has reached its terminal state.
func (s *Stream[T]) Closed() bool {
	return s.core.closed.Load()
}

// All iterates the remaining chunks. A fatal error is yielded once as the
// last element. The stream is closed when the loop ends, including on break.
//
//	for chunk, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Text())
//	}
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			chunk, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (s *Stream[T]) tap(fn func(T))         { s.core.taps = append(s.core.taps, fn) }
func (s *Stream[T]) onClose(fn func(error)) { s.core.hooks = append(s.core.hooks, fn) }

// AsyncStream is the cooperative flavor of Stream. A single pump goroutine
// performs the blocking reads, one per request from Next, and hands each
// unit over a channel; Next suspends in a select and honors its context.
//
// Cancelling the context passed to Next abandons that call only: the stream
// stays open, keeps its position, and must still be closed. A unit read on
// behalf of an abandoned call is delivered to the next call.
type AsyncStream[T any] struct {
	core  *streamCore[T]
	src   Source
	want  chan struct{}
	units chan pulled
	done  chan struct{}
	start sync.Once

	// pending is set while a requested unit has not been received yet.
	pending bool
}

type pulled struct {
	unit []byte
	err  error
}

// NewAsyncStream creates a cooperative stream that exclusively owns src.
// No goroutine is started until the first call to Next.
func NewAsyncStream[T any](src Source, dec Decoder[T], owner StreamOwner) *AsyncStream[T] {
	s := &AsyncStream[T]{
		src:   src,
		want:  make(chan struct{}),
		units: make(chan pulled),
		done:  make(chan struct{}),
	}
	s.core = newStreamCore(dec, owner, releaseOf(src))
	s.core.hooks = append(s.core.hooks, func(error) { close(s.done) })
	return s
}

// Next waits for the next chunk, ctx cancellation, or stream closure.
func (s *AsyncStream[T]) Next(ctx context.Context) (T, error) {
	return s.core.advance(ctx, s.pull)
}

func (s *AsyncStream[T]) pull(ctx context.Context) ([]byte, error) {
	s.start.Do(func() { go s.pump() })

	if !s.pending {
		select {
		case s.want <- struct{}{}:
			s.pending = true
		case <-s.done:
			return nil, io.EOF
		case <-ctx.Done():
			return nil, abandonedWait{err: ctx.Err()}
		}
	}

	select {
	case p := <-s.units:
		s.pending = false
		return p.unit, p.err
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, abandonedWait{err: ctx.Err()}
	}
}

// abandonedWait marks a context error raised while waiting for a unit,
// as opposed to one reported by the transport.
type abandonedWait struct {
	err error
}

func (a abandonedWait) Error() string { return a.err.Error() }
func (a abandonedWait) Unwrap() error { return a.err }

// pump reads one unit per request until the source fails or the stream
// closes. The unit stays valid until the next request, which is only made
// after the previous unit has been decoded.
func (s *AsyncStream[T]) pump() {
	for {
		select {
		case <-s.want:
		case <-s.done:
			return
		}

		unit, err := s.src.Next()
		select {
		case s.units <- pulled{unit: unit, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Close releases the underlying transport and stops the pump goroutine.
// It never fails and does not wait for the pump to exit.
func (s *AsyncStream[T]) Close() error {
	s.core.shutdown(nil)
	return nil
}

// Closed reports whether the stream has reached its terminal state.
func (s *AsyncStream[T]) Closed() bool {
	return s.core.closed.Load()
}

// All iterates the remaining chunks using ctx for every wait. A fatal error,
// including ctx cancellation, is yielded once as the last element. The
// stream is closed when the loop ends.
func (s *AsyncStream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			chunk, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (s *AsyncStream[T]) tap(fn func(T))         { s.core.taps = append(s.core.taps, fn) }
func (s *AsyncStream[T]) onClose(fn func(error)) { s.core.hooks = append(s.core.hooks, fn) }
