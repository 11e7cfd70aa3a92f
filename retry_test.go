package tchannel

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/kangkot/tchannel/messages"
	"github.com/kangkot/tchannel/wire"
)

// wouldBlockReader refuses with ErrWouldBlock a fixed number of times
// before serving from data.
type wouldBlockReader struct {
	blocks int
	data   *bytes.Reader
}

func (r *wouldBlockReader) Read(p []byte) (int, error) {
	if r.blocks > 0 {
		r.blocks--
		return 0, wire.ErrWouldBlock
	}
	return r.data.Read(p)
}

// wouldBlockWriter refuses with ErrWouldBlock a fixed number of times
// before accepting bytes.
type wouldBlockWriter struct {
	blocks int
	buf    bytes.Buffer
}

func (w *wouldBlockWriter) Write(p []byte) (int, error) {
	if w.blocks > 0 {
		w.blocks--
		return 0, wire.ErrWouldBlock
	}
	return w.buf.Write(p)
}

// moreReader serves its payload one byte per call, reporting ErrMore
// alongside every byte but the last.
type moreReader struct {
	data []byte
}

func (r *moreReader) Read(p []byte) (int, error) {
	n := copy(p, r.data[:1])
	r.data = r.data[n:]
	if len(r.data) > 0 {
		return n, wire.ErrMore
	}
	return n, nil
}

func TestWaitOnceOnWouldBlockRegimes(t *testing.T) {
	if waitOnceOnWouldBlock(-1) {
		t.Fatal("negative delay must not retry")
	}
	if !waitOnceOnWouldBlock(0) {
		t.Fatal("zero delay must yield and retry")
	}
	start := time.Now()
	if !waitOnceOnWouldBlock(time.Millisecond) {
		t.Fatal("positive delay must sleep and retry")
	}
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Fatalf("positive delay returned after %v, want >= 1ms", elapsed)
	}
}

func TestReadAllNonblockSurfacesWouldBlock(t *testing.T) {
	r := &wouldBlockReader{blocks: 1, data: bytes.NewReader([]byte("abcd"))}
	_, err := readAll(r, 4, -1)
	if !errors.Is(err, wire.ErrWouldBlock) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
}

func TestReadAllRetriesOnWouldBlock(t *testing.T) {
	delays := map[string]time.Duration{
		"yield": 0,
		"sleep": time.Millisecond,
	}
	for name, d := range delays {
		t.Run(name, func(t *testing.T) {
			r := &wouldBlockReader{blocks: 2, data: bytes.NewReader([]byte("abcd"))}
			got, err := readAll(r, 4, d)
			if err != nil {
				t.Fatalf("readAll: %v", err)
			}
			if !bytes.Equal(got, []byte("abcd")) {
				t.Fatalf("got %q, want %q", got, "abcd")
			}
		})
	}
}

func TestReadAllRetriesOnErrMore(t *testing.T) {
	r := &moreReader{data: []byte("abcd")}
	got, err := readAll(r, 4, 0)
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if !bytes.Equal(got, []byte("abcd")) {
		t.Fatalf("got %q, want %q", got, "abcd")
	}
}

func TestWriteAllNonblockSurfacesWouldBlock(t *testing.T) {
	w := &wouldBlockWriter{blocks: 1}
	err := writeAll(w, []byte("abcd"), -1)
	if !errors.Is(err, wire.ErrWouldBlock) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
	if w.buf.Len() != 0 {
		t.Fatalf("nonblock failure should leave no bytes written, got %d", w.buf.Len())
	}
}

func TestWriteAllRetriesOnWouldBlock(t *testing.T) {
	delays := map[string]time.Duration{
		"yield": 0,
		"sleep": time.Millisecond,
	}
	for name, d := range delays {
		t.Run(name, func(t *testing.T) {
			w := &wouldBlockWriter{blocks: 2}
			if err := writeAll(w, []byte("abcd"), d); err != nil {
				t.Fatalf("writeAll: %v", err)
			}
			if !bytes.Equal(w.buf.Bytes(), []byte("abcd")) {
				t.Fatalf("got %q, want %q", w.buf.Bytes(), "abcd")
			}
		})
	}
}

// TestDecodeFrameRidesOverWouldBlock drives a whole frame decode
// through a transport that pushes back twice before serving bytes.
func TestDecodeFrameRidesOverWouldBlock(t *testing.T) {
	var frame, scratch bytes.Buffer
	req := messages.CallReq{Service: "s", Body: []byte("payload")}
	if err := encodeFrame(&frame, 3, req, &scratch, -1); err != nil {
		t.Fatal(err)
	}

	r := &wouldBlockReader{blocks: 2, data: bytes.NewReader(frame.Bytes())}
	ctx, err := decodeFrame(r, 0, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ctx.ID != 3 {
		t.Fatalf("id = %d, want 3", ctx.ID)
	}
	if _, ok := ctx.Message.(messages.CallReq); !ok {
		t.Fatalf("got %T, want CallReq", ctx.Message)
	}
}
