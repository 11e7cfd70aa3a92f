package tchannel_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	tchannel "github.com/kangkot/tchannel"
	"github.com/kangkot/tchannel/messages"
	"github.com/kangkot/tchannel/rw"
)

// duplex composes an independent read half and write half into the
// single io.ReadWriter a Connection expects.
type duplex struct {
	io.Reader
	io.Writer
}

// TestHandshakeCompletes checks that the server extracts the client's
// host_port/process_name and both sides end up Ready.
func TestHandshakeCompletes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientConn := tchannel.NewConnection(client)
	serverConn := tchannel.NewConnection(server)

	clientHeaders := []rw.HeaderPair{
		{messages.HostPort, "h:1"},
		{messages.ProcessName, "p"},
	}

	// Each side's full handshake leg (write-then-read, or
	// read-then-write) must run in its own goroutine: net.Pipe is
	// synchronous, so the client's InitRes read cannot be deferred
	// until after the server's InitRes write has already completed.
	errc := make(chan error, 2)
	go func() {
		if err := clientConn.InitiateHandshake(clientHeaders); err != nil {
			errc <- err
			return
		}
		errc <- clientConn.AwaitHandshakeReply()
	}()
	go func() {
		errc <- serverConn.AwaitHandshake([]rw.HeaderPair{
			{messages.HostPort, "h:2"},
			{messages.ProcessName, "server"},
		})
	}()
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil {
			t.Fatalf("handshake leg failed: %v", err)
		}
	}

	if serverConn.RemoteHost() != "h:1" {
		t.Fatalf("server remote host = %q", serverConn.RemoteHost())
	}
	if serverConn.RemoteProcessName() != "p" {
		t.Fatalf("server remote process name = %q", serverConn.RemoteProcessName())
	}
	if serverConn.Phase() != tchannel.Ready {
		t.Fatalf("server phase = %v, want Ready", serverConn.Phase())
	}
	if clientConn.Phase() != tchannel.Ready {
		t.Fatalf("client phase = %v, want Ready", clientConn.Phase())
	}
}

func TestHandshakeMissingHostPort(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientConn := tchannel.NewConnection(client)
	serverConn := tchannel.NewConnection(server)

	go func() {
		_ = clientConn.InitiateHandshake([]rw.HeaderPair{
			{messages.ProcessName, "p"},
		})
	}()

	err := serverConn.AwaitHandshake([]rw.HeaderPair{
		{messages.HostPort, "h:2"},
		{messages.ProcessName, "server"},
	})
	if _, ok := err.(*tchannel.InvalidMessageError); !ok {
		t.Fatalf("got %v (%T), want *tchannel.InvalidMessageError", err, err)
	}
}

// TestMessageIDsIncreaseFromOne checks that ids over a connection are
// strictly increasing starting at 1.
func TestMessageIDsIncreaseFromOne(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	conn := tchannel.NewConnection(client)

	first := conn.NextMessageID()
	second := conn.NextMessageID()
	third := conn.NextMessageID()
	if first != 1 || second != 2 || third != 3 {
		t.Fatalf("ids = %d,%d,%d, want 1,2,3", first, second, third)
	}
}

// TestHandleCallsAutoAnswersPing exercises Ping/Pong id reuse.
// Each connection is wired over a pair of plain byte buffers rather
// than a blocking pipe, so the exchange is driven deterministically
// without goroutines: a buffer's Read returns io.EOF the instant it is
// drained, which is exactly the clean-EOF termination HandleCalls
// expects once a side has nothing left to say.
func TestHandleCallsAutoAnswersPing(t *testing.T) {
	var clientToServer, serverToClient bytes.Buffer

	clientConn := tchannel.NewConnection(duplex{Reader: &serverToClient, Writer: &clientToServer})
	serverConn := tchannel.NewConnection(duplex{Reader: &clientToServer, Writer: &serverToClient})

	pingID, err := clientConn.Ping()
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if pingID != 1 {
		t.Fatalf("ping id = %d, want 1", pingID)
	}

	called := false
	if err := serverConn.HandleCalls(func(tchannel.Context, *tchannel.Connection) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("server HandleCalls: %v", err)
	}
	if called {
		t.Fatal("handler should not be invoked for a ping")
	}

	// serverConn answered with a PingRes reusing the request's id;
	// inspect the raw frame header (id occupies bytes 4-8) to confirm
	// the reuse without needing a second HandleCalls loop.
	resBytes := serverToClient.Bytes()
	if len(resBytes) < 8 {
		t.Fatalf("expected a PingRes frame, got %d bytes", len(resBytes))
	}
	gotID := binary.BigEndian.Uint32(resBytes[4:8])
	if gotID != pingID {
		t.Fatalf("pong id = %d, want %d", gotID, pingID)
	}
}

// TestCallRequiresReadyPhase checks that a call frame cannot be
// emitted before the handshake completes; only handshake and ping
// frames may leave an Unshaken connection.
func TestCallRequiresReadyPhase(t *testing.T) {
	var out bytes.Buffer
	conn := tchannel.NewConnection(duplex{Reader: bytes.NewReader(nil), Writer: &out})

	_, err := conn.Call("echo", nil, []byte("too early"))
	if _, ok := err.(*tchannel.InvalidMessageError); !ok {
		t.Fatalf("got %v (%T), want *tchannel.InvalidMessageError", err, err)
	}
	if out.Len() != 0 {
		t.Fatalf("no bytes should reach the stream, got %d", out.Len())
	}
}

// TestCallMintsDistinctTraces drives a full buffer-backed handshake and
// two calls: each call minted by the connection's TraceGenerator must
// carry a distinct non-zero span id.
func TestCallMintsDistinctTraces(t *testing.T) {
	var clientToServer, serverToClient bytes.Buffer

	clientConn := tchannel.NewConnection(duplex{Reader: &serverToClient, Writer: &clientToServer})
	serverConn := tchannel.NewConnection(duplex{Reader: &clientToServer, Writer: &serverToClient})

	headers := []rw.HeaderPair{
		{messages.HostPort, "h:1"},
		{messages.ProcessName, "p"},
	}
	if err := clientConn.InitiateHandshake(headers); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := serverConn.AwaitHandshake(headers); err != nil {
		t.Fatalf("await: %v", err)
	}
	if err := clientConn.AwaitHandshakeReply(); err != nil {
		t.Fatalf("reply: %v", err)
	}

	firstID, err := clientConn.Call("echo", nil, []byte("one"))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	secondID, err := clientConn.Call("echo", nil, []byte("two"))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if secondID != firstID+1 {
		t.Fatalf("call ids = %d,%d, want consecutive", firstID, secondID)
	}

	first, err := serverConn.Frames().Next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	second, err := serverConn.Frames().Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	t1 := first.Message.(messages.CallReq).Trace
	t2 := second.Message.(messages.CallReq).Trace
	if t1.SpanID == 0 || t2.SpanID == 0 {
		t.Fatalf("minted span ids must be non-zero, got %d and %d", t1.SpanID, t2.SpanID)
	}
	if t1.SpanID == t2.SpanID {
		t.Fatal("consecutive calls should mint distinct span ids")
	}
}

// TestHandleCallsCleanEOF checks that an inbound sequence over a
// closed stream yields no items and terminates cleanly.
func TestHandleCallsCleanEOF(t *testing.T) {
	client, server := net.Pipe()
	serverConn := tchannel.NewConnection(server)
	client.Close()

	called := false
	err := serverConn.HandleCalls(func(tchannel.Context, *tchannel.Connection) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("HandleCalls over a closed stream should terminate cleanly, got %v", err)
	}
	if called {
		t.Fatal("handler should never be invoked over an empty stream")
	}
}
