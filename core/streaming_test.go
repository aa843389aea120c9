package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type textChunk struct {
	Text string `json:"text"`
}

type fakeUnit struct {
	data string
	err  error
}

// fakeSource replays units and records pulls and releases.
type fakeSource struct {
	mu       sync.Mutex
	units    []fakeUnit
	pos      int
	pulls    int
	closes   int
	closeErr error
}

func (s *fakeSource) Next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulls++
	if s.pos >= len(s.units) {
		return nil, io.EOF
	}
	u := s.units[s.pos]
	s.pos++
	if u.err != nil {
		return nil, u.err
	}
	return []byte(u.data), nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.closeErr
}

func (s *fakeSource) counts() (pulls, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls, s.closes
}

func sseUnits(texts ...string) []fakeUnit {
	units := make([]fakeUnit, 0, len(texts))
	for _, t := range texts {
		units = append(units, fakeUnit{data: fmt.Sprintf("data: {\"text\":%q}\n", t)})
	}
	return units
}

var doneUnit = fakeUnit{data: "data: [DONE]\n"}

// iterator abstracts over the two flavors so every property runs on both.
type iterator struct {
	next   func() (textChunk, error)
	close  func() error
	closed func() bool
}

type flavor struct {
	name string
	open func(src Source, owner StreamOwner) iterator
}

var flavors = []flavor{
	{
		name: "sync",
		open: func(src Source, owner StreamOwner) iterator {
			s := NewStream[textChunk](src, NewSSEDecoder[textChunk](), owner)
			return iterator{next: s.Next, close: s.Close, closed: s.Closed}
		},
	},
	{
		name: "async",
		open: func(src Source, owner StreamOwner) iterator {
			s := NewAsyncStream[textChunk](src, NewSSEDecoder[textChunk](), owner)
			return iterator{
				next:   func() (textChunk, error) { return s.Next(context.Background()) },
				close:  s.Close,
				closed: s.Closed,
			}
		},
	},
}

func testOwner() StreamOwner {
	return NewStreamOwner(HTTPTranslator{Provider: "venice"}, nil)
}

func collect(t *testing.T, it iterator) ([]string, error) {
	t.Helper()
	var out []string
	for {
		c, err := it.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c.Text)
	}
}

func TestStreamPreservesOrder(t *testing.T) {
	want := make([]string, 50)
	for i := range want {
		want[i] = fmt.Sprintf("chunk-%02d", i)
	}

	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			src := &fakeSource{units: append(sseUnits(want...), doneUnit)}
			got, err := collect(t, f.open(src, testOwner()))
			if err != nil {
				t.Fatalf("collect() error = %v", err)
			}
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("chunks = %v, want %v", got, want)
			}
		})
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	states := []struct {
		name    string
		advance int
	}{
		{"before first advance", 0},
		{"mid-stream", 1},
		{"after exhaustion", 10},
	}

	for _, f := range flavors {
		for _, st := range states {
			t.Run(f.name+"/"+st.name, func(t *testing.T) {
				src := &fakeSource{units: append(sseUnits("a", "b"), doneUnit)}
				it := f.open(src, testOwner())
				for i := 0; i < st.advance; i++ {
					if _, err := it.next(); err == io.EOF {
						break
					}
				}
				for i := 0; i < 3; i++ {
					if err := it.close(); err != nil {
						t.Fatalf("Close() = %v, want nil", err)
					}
				}
				if _, closes := src.counts(); closes != 1 {
					t.Errorf("release called %d times, want 1", closes)
				}
				if !it.closed() {
					t.Error("Closed() = false after Close")
				}
			})
		}
	}
}

func TestStreamNextAfterCloseNeverReads(t *testing.T) {
	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			src := &fakeSource{units: append(sseUnits("a", "b", "c"), doneUnit)}
			it := f.open(src, testOwner())

			if _, err := it.next(); err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			_ = it.close()
			pulls, _ := src.counts()

			for i := 0; i < 3; i++ {
				if _, err := it.next(); err != io.EOF {
					t.Fatalf("Next() after Close = %v, want io.EOF", err)
				}
			}
			if after, _ := src.counts(); after != pulls {
				t.Errorf("source pulled %d times after Close", after-pulls)
			}
		})
	}
}

func TestStreamReleasesOnTransportFailure(t *testing.T) {
	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			units := append(sseUnits("a"), fakeUnit{err: errors.New("connection reset by peer")})
			src := &fakeSource{units: append(units, sseUnits("never")...)}
			it := f.open(src, testOwner())

			if c, err := it.next(); err != nil || c.Text != "a" {
				t.Fatalf("Next() = %q, %v, want %q, nil", c.Text, err, "a")
			}
			_, err := it.next()
			if !errors.Is(err, ErrNetwork) {
				t.Fatalf("Next() error = %v, want ErrNetwork", err)
			}
			if !it.closed() {
				t.Error("Closed() = false after transport failure")
			}
			if _, err := it.next(); err != io.EOF {
				t.Errorf("Next() after failure = %v, want io.EOF", err)
			}
			_ = it.close()
			if _, closes := src.counts(); closes != 1 {
				t.Errorf("release called %d times, want 1", closes)
			}
		})
	}
}

func TestStreamThreeChunksThenSentinel(t *testing.T) {
	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			src := &fakeSource{units: append(sseUnits("one", "two", "three"), doneUnit)}
			it := f.open(src, testOwner())

			for _, want := range []string{"one", "two", "three"} {
				c, err := it.next()
				if err != nil {
					t.Fatalf("Next() error = %v", err)
				}
				if c.Text != want {
					t.Errorf("Next() = %q, want %q", c.Text, want)
				}
			}
			if _, err := it.next(); err != io.EOF {
				t.Fatalf("Next() = %v, want io.EOF", err)
			}
			if _, closes := src.counts(); closes != 1 {
				t.Fatalf("release called %d times at end of stream, want 1", closes)
			}
			if err := it.close(); err != nil {
				t.Errorf("Close() = %v, want nil", err)
			}
			if _, closes := src.counts(); closes != 1 {
				t.Errorf("Close after exhaustion released again (%d)", closes)
			}
		})
	}
}

func TestStreamStatusFailureMidStream(t *testing.T) {
	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			failure := &TransportError{
				StatusCode: 400,
				Header:     map[string][]string{"X-Request-Id": {"req_1"}},
				Body:       []byte(`{"error":{"message":"invalid temperature"}}`),
			}
			src := &fakeSource{units: append(sseUnits("first"), fakeUnit{err: failure})}
			it := f.open(src, testOwner())

			if c, err := it.next(); err != nil || c.Text != "first" {
				t.Fatalf("Next() = %q, %v, want %q, nil", c.Text, err, "first")
			}

			_, err := it.next()
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("Next() error = %v, want ErrBadRequest", err)
			}
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ProviderError", err)
			}
			if pe.Status != 400 || pe.RequestID != "req_1" {
				t.Errorf("Status, RequestID = %d, %q, want 400, %q", pe.Status, pe.RequestID, "req_1")
			}
			if !it.closed() {
				t.Error("Closed() = false after status failure")
			}
		})
	}
}

func TestStreamCloseWithoutRelease(t *testing.T) {
	src := SourceFunc(func() ([]byte, error) { return nil, io.EOF })

	s := NewStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())
	if err := s.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
	if !s.Closed() {
		t.Error("Closed() = false after Close")
	}

	as := NewAsyncStream[textChunk](src, NewSSEDecoder[textChunk](), nil)
	if err := as.Close(); err != nil {
		t.Errorf("async Close() = %v, want nil", err)
	}
}

func TestStreamReleaseFailureIsLogged(t *testing.T) {
	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			obs, logs := observer.New(zapcore.DebugLevel)
			owner := NewStreamOwner(HTTPTranslator{Provider: "venice"}, zap.New(obs))
			src := &fakeSource{closeErr: errors.New("socket already closed")}

			it := f.open(src, owner)
			if err := it.close(); err != nil {
				t.Fatalf("Close() = %v, want nil", err)
			}

			entries := logs.FilterMessage("stream release failed").All()
			if len(entries) != 1 {
				t.Fatalf("logged %d release failures, want 1", len(entries))
			}
			if entries[0].Level != zapcore.DebugLevel {
				t.Errorf("level = %v, want debug", entries[0].Level)
			}
			if got := entries[0].ContextMap()["error"]; got != "socket already closed" {
				t.Errorf("error field = %v, want %q", got, "socket already closed")
			}
		})
	}
}

func TestStreamSkipsNonDataLines(t *testing.T) {
	units := []fakeUnit{
		{data: ": keep-alive\n"},
		{data: "\n"},
		{data: "event: message\n"},
		{data: "id: 7\n"},
		{data: "retry: 1000\n"},
		{data: "data:\n"},
		{data: `data: {"text":"hello"}` + "\n"},
		doneUnit,
	}

	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			src := &fakeSource{units: units}
			got, err := collect(t, f.open(src, testOwner()))
			if err != nil {
				t.Fatalf("collect() error = %v", err)
			}
			if len(got) != 1 || got[0] != "hello" {
				t.Errorf("chunks = %v, want [hello]", got)
			}
		})
	}
}

func TestStreamMalformedPayloadCloses(t *testing.T) {
	for _, f := range flavors {
		t.Run(f.name, func(t *testing.T) {
			src := &fakeSource{units: []fakeUnit{{data: "data: {not json\n"}}}
			it := f.open(src, testOwner())

			_, err := it.next()
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("Next() error = %v, want ErrDecode", err)
			}
			if !it.closed() {
				t.Error("Closed() = false after malformed payload")
			}
			if _, closes := src.counts(); closes != 1 {
				t.Errorf("release called %d times, want 1", closes)
			}
		})
	}
}

func TestStreamInlineErrorEvent(t *testing.T) {
	events := []struct {
		name string
		line string
	}{
		{"numeric code", `data: {"error":{"message":"model overloaded","code":503}}`},
		{"nested status", `data: {"error":{"message":"model overloaded","status":503}}`},
		{"top-level status", `data: {"error":{"message":"model overloaded"},"status":503}`},
	}

	for _, f := range flavors {
		for _, ev := range events {
			t.Run(f.name+"/"+ev.name, func(t *testing.T) {
				src := &fakeSource{units: append(sseUnits("partial"), fakeUnit{data: ev.line + "\n"})}
				it := f.open(src, testOwner())

				if _, err := it.next(); err != nil {
					t.Fatalf("Next() error = %v", err)
				}
				_, err := it.next()
				if !errors.Is(err, ErrServer) {
					t.Fatalf("Next() error = %v, want ErrServer", err)
				}
				for _, want := range []string{"HTTP Status 503", "model overloaded"} {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("error = %q, want it to contain %q", err, want)
					}
				}
				if !isRetryable(err) {
					t.Errorf("isRetryable(%v) = false, want true", err)
				}
				if _, closes := src.counts(); closes != 1 {
					t.Errorf("closes = %d, want 1", closes)
				}
			})
		}
	}
}

func TestStreamEOFWithoutSentinel(t *testing.T) {
	src := &fakeSource{units: sseUnits("a", "b")}
	s := NewStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())

	var got []string
	for c, err := range s.All() {
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		got = append(got, c.Text)
	}
	if len(got) != 2 {
		t.Errorf("chunks = %v, want 2", got)
	}
	if _, closes := src.counts(); closes != 1 {
		t.Errorf("release called %d times, want 1", closes)
	}
}

func TestStreamAllBreakCloses(t *testing.T) {
	src := &fakeSource{units: append(sseUnits("a", "b", "c"), doneUnit)}
	s := NewStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())

	for c, err := range s.All() {
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if c.Text == "a" {
			break
		}
	}
	if !s.Closed() {
		t.Error("Closed() = false after break")
	}
	if _, closes := src.counts(); closes != 1 {
		t.Errorf("release called %d times, want 1", closes)
	}
}

func TestStreamAllYieldsErrorOnce(t *testing.T) {
	src := &fakeSource{units: append(sseUnits("a"), fakeUnit{err: errors.New("boom")})}
	s := NewAsyncStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())

	var chunks, errs int
	for _, err := range s.All(context.Background()) {
		if err != nil {
			errs++
			continue
		}
		chunks++
	}
	if chunks != 1 || errs != 1 {
		t.Errorf("chunks, errors = %d, %d, want 1, 1", chunks, errs)
	}
}

func TestStreamHooksRunOnce(t *testing.T) {
	src := &fakeSource{units: append(sseUnits("a", "b"), doneUnit)}
	s := NewStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())

	var tapped, ended int
	var cause error = errors.New("unset")
	s.tap(func(textChunk) { tapped++ })
	s.onClose(func(err error) { ended++; cause = err })

	for range s.All() {
	}
	_ = s.Close()

	if tapped != 2 {
		t.Errorf("tap ran %d times, want 2", tapped)
	}
	if ended != 1 {
		t.Errorf("onClose ran %d times, want 1", ended)
	}
	if cause != nil {
		t.Errorf("cause = %v, want nil on exhaustion", cause)
	}
}

// blockingSource delivers units only when fed; Close unblocks a pending Next.
type blockingSource struct {
	feed     chan fakeUnit
	released chan struct{}
	once     sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{feed: make(chan fakeUnit), released: make(chan struct{})}
}

func (s *blockingSource) Next() ([]byte, error) {
	select {
	case u := <-s.feed:
		return []byte(u.data), u.err
	case <-s.released:
		return nil, errors.New("read on closed body")
	}
}

func (s *blockingSource) Close() error {
	s.once.Do(func() { close(s.released) })
	return nil
}

func TestAsyncStreamCancelledWaitKeepsStreamOpen(t *testing.T) {
	src := newBlockingSource()
	s := NewAsyncStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Next() error = %v, want context.DeadlineExceeded", err)
	}
	if s.Closed() {
		t.Fatal("abandoned wait closed the stream")
	}

	go func() { src.feed <- sseUnits("late")[0] }()
	c, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if c.Text != "late" {
		t.Errorf("Next() = %q, want %q", c.Text, "late")
	}
}

func TestAsyncStreamCloseUnblocksWaiter(t *testing.T) {
	src := newBlockingSource()
	s := NewAsyncStream[textChunk](src, NewSSEDecoder[textChunk](), testOwner())

	errc := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	_ = s.Close()

	select {
	case err := <-errc:
		if err != io.EOF {
			t.Errorf("Next() = %v, want io.EOF", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() still blocked after Close")
	}
}

func TestAsyncStreamBinarySegments(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 100)
	src := NewSegmentSource(io.NopCloser(bytes.NewReader(payload)), 64)
	s := NewAsyncStream[[]byte](src, BytesDecoder{}, testOwner())

	var chunks [][]byte
	for c, err := range s.All(context.Background()) {
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		chunks = append(chunks, c)
	}
	if got := bytes.Join(chunks, nil); !bytes.Equal(got, payload) {
		t.Errorf("reassembled %d bytes, want %d identical bytes", len(got), len(payload))
	}
	if len(chunks) != 16 {
		t.Errorf("got %d chunks, want 16", len(chunks))
	}
}
