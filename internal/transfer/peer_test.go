package transfer

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"multiput/internal/protocol"
)

// mockPeer is a loopback receiver speaking the peer side of the protocol.
// It answers each offer with decide(name) and acknowledges every body with "OK".
type mockPeer struct {
	t          *testing.T
	listener   net.Listener
	decide     func(name string) string
	completion string

	mu       sync.Mutex
	offers   []string
	lengths  []int64
	received []int64
	bodies   map[string][]byte
	accepts  int
	done     chan struct{}
	err      error
}

func newMockPeer(t *testing.T, decide func(name string) string) *mockPeer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := &mockPeer{
		t:          t,
		listener:   listener,
		decide:     decide,
		completion: "Trasferimento completato",
		bodies:     make(map[string][]byte),
		done:       make(chan struct{}),
	}
	t.Cleanup(func() { listener.Close() })
	go p.serve()
	return p
}

func acceptAll(string) string { return protocol.RespAccept }

func (p *mockPeer) endpoint() Endpoint {
	addr := p.listener.Addr().(*net.TCPAddr)
	return Endpoint{IP: addr.IP, Port: addr.Port}
}

func (p *mockPeer) serve() {
	defer close(p.done)
	conn, err := p.listener.Accept()
	if err != nil {
		p.err = err
		return
	}
	defer conn.Close()
	p.mu.Lock()
	p.accepts++
	p.mu.Unlock()

	for {
		name, err := protocol.ReadUTF(conn)
		if errors.Is(err, io.EOF) {
			p.err = protocol.WriteUTF(conn, p.completion)
			return
		}
		if err != nil {
			p.err = err
			return
		}
		p.mu.Lock()
		p.offers = append(p.offers, name)
		p.mu.Unlock()

		response := p.decide(name)
		if err := protocol.WriteUTF(conn, response); err != nil {
			p.err = err
			return
		}
		if response != protocol.RespAccept {
			continue
		}

		var size int64
		if err := binary.Read(conn, binary.BigEndian, &size); err != nil {
			p.err = err
			return
		}
		var body bytes.Buffer
		n, err := io.CopyN(&body, conn, size)
		p.mu.Lock()
		p.lengths = append(p.lengths, size)
		p.received = append(p.received, n)
		p.bodies[name] = body.Bytes()
		p.mu.Unlock()
		if err != nil {
			p.err = err
			return
		}
		if err := protocol.WriteUTF(conn, protocol.RespOK); err != nil {
			p.err = err
			return
		}
	}
}

// wait blocks until the peer has seen the client close its side.
func (p *mockPeer) wait(t *testing.T) {
	t.Helper()
	<-p.done
	if p.err != nil {
		t.Fatalf("mock peer: %v", p.err)
	}
}

// countingDialer records dial attempts before delegating.
type countingDialer struct {
	next  Dialer
	dials int
}

func (d *countingDialer) Dial(ctx context.Context, endpoint Endpoint) (Conn, error) {
	d.dials++
	return d.next.Dial(ctx, endpoint)
}

type failingDialer struct{ err error }

func (d failingDialer) Dial(context.Context, Endpoint) (Conn, error) {
	return nil, d.err
}

// scriptConn replays canned peer bytes and records what the client writes.
// The failWrite-th Write call (1-based) fails; zero never fails.
type scriptConn struct {
	in        *bytes.Reader
	out       bytes.Buffer
	writes    int
	failWrite int

	closedWrite, closedRead, closed bool
}

func newScriptConn(t *testing.T, responses ...string) *scriptConn {
	t.Helper()
	var in bytes.Buffer
	for _, r := range responses {
		if err := protocol.WriteUTF(&in, r); err != nil {
			t.Fatal(err)
		}
	}
	return &scriptConn{in: bytes.NewReader(in.Bytes())}
}

func (c *scriptConn) Read(b []byte) (int, error) {
	return c.in.Read(b)
}

func (c *scriptConn) Write(b []byte) (int, error) {
	c.writes++
	if c.writes == c.failWrite {
		return 0, io.ErrClosedPipe
	}
	return c.out.Write(b)
}

func (c *scriptConn) CloseWrite() error { c.closedWrite = true; return nil }
func (c *scriptConn) CloseRead() error { c.closedRead = true; return nil }
func (c *scriptConn) Close() error { c.closed = true; return nil }

type connDialer struct{ conn Conn }

func (d connDialer) Dial(context.Context, Endpoint) (Conn, error) {
	return d.conn, nil
}

func loopback() Endpoint {
	return Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 4000}
}

// writeFiles creates name -> size files filled with a per-file byte pattern.
func writeFiles(t *testing.T, files map[string]int) string {
	t.Helper()
	dir := t.TempDir()
	for name, size := range files {
		content := bytes.Repeat([]byte{name[0]}, size)
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// offersIn decodes the FileOffer names at the start of a recorded client stream.
func offersIn(t *testing.T, wire []byte) []string {
	t.Helper()
	var names []string
	r := bytes.NewReader(wire)
	for r.Len() > 0 {
		name, err := protocol.ReadUTF(r)
		if err != nil {
			break
		}
		names = append(names, name)
	}
	return names
}
