package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/quic-go/quic-go"
)

// Conn is one ordered, bidirectional byte stream whose halves can be shut
// down independently.
type Conn interface {
	io.ReadWriter
	CloseWrite() error
	CloseRead() error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint Endpoint) (Conn, error)
}

// NewDialer returns the dialer for a transport name: "tcp" (the default) or "quic".
func NewDialer(transport string) (Dialer, error) {
	switch transport {
	case "", "tcp":
		return TCPDialer{}, nil
	case "quic":
		return QUICDialer{}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

type TCPDialer struct{}

func (TCPDialer) Dial(ctx context.Context, endpoint Endpoint) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", endpoint.String())
	if err != nil {
		return nil, err
	}
	tcpconn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("unexpected connection type %T", conn)
	}
	tcpconn.SetNoDelay(true)
	return tcpConn{TCPConn: tcpconn}, nil
}

// tcpConn treats shutting down a half the peer already closed as done.
type tcpConn struct {
	*net.TCPConn
}

func (c tcpConn) CloseWrite() error {
	return ignoreNotConnected(c.TCPConn.CloseWrite())
}

func (c tcpConn) CloseRead() error {
	return ignoreNotConnected(c.TCPConn.CloseRead())
}

func ignoreNotConnected(err error) error {
	if errors.Is(err, syscall.ENOTCONN) {
		return nil
	}
	return err
}

// QUICDialer carries the session on a single bidirectional QUIC stream.
type QUICDialer struct {
	Config *quic.Config
}

func (d QUICDialer) Dial(ctx context.Context, endpoint Endpoint) (Conn, error) {
	tlsConfig, err := clientTLSConfig(endpoint.IP.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate TLS config: %w", err)
	}
	quicConfig := d.Config
	if quicConfig == nil {
		quicConfig = &quic.Config{
			KeepAlivePeriod: 10 * time.Second,
			MaxIdleTimeout:  30 * time.Second,
		}
	}
	conn, err := quic.DialAddr(ctx, endpoint.String(), tlsConfig, quicConfig)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "stream open failed")
		return nil, err
	}
	return &quicConn{Stream: stream, conn: conn}, nil
}

type quicConn struct {
	quic.Stream
	conn quic.Connection
}

// CloseWrite sends FIN on the stream.
func (q *quicConn) CloseWrite() error {
	return q.Stream.Close()
}

func (q *quicConn) CloseRead() error {
	q.Stream.CancelRead(0)
	return nil
}

func (q *quicConn) Close() error {
	return q.conn.CloseWithError(0, "session closed")
}
