// Package protocol frames the messages exchanged with a multiput peer.
//
//	client                                  peer
//	FileOffer   <len:2><name>        ---->
//	                                 <----  Response <len:2>"attiva" | <len:2><reason>
//	LengthHeader <size:8, big endian> ---->
//	FileBody     <size raw bytes>     ---->
//	                                 <----  TransferAck <len:2>"OK" | <len:2><reason>
//	... one block per eligible file ...
//	shutdown(write)                  ---->
//	                                 <----  <len:2><completion message>
//
// Strings use the Java DataOutput.writeUTF encoding so the client interoperates
// with existing peers.
package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// RespAccept is the offer acceptance sent by the peer.
	RespAccept = "attiva"
	// RespSkip is the reason a peer gives for a file it already holds.
	RespSkip = "salta file"
	// RespOK acknowledges a completed body.
	RespOK = "OK"
)

const chunkSize = 1024 * 1024

// Codec encodes and decodes messages over one ordered byte stream. It does not
// interpret responses and never retries.
type Codec struct {
	r *bufio.Reader
	w *bufio.Writer
}

func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{
		r: bufio.NewReader(rw),
		w: bufio.NewWriterSize(rw, chunkSize),
	}
}

// WriteFileOffer sends the file name and flushes, since the peer answers
// before anything else is sent.
func (c *Codec) WriteFileOffer(name string) error {
	if err := WriteUTF(c.w, name); err != nil {
		return fmt.Errorf("write offer %q: %w", name, err)
	}
	return c.Flush()
}

// WriteLength sends the 8-byte big-endian body length.
func (c *Codec) WriteLength(n int64) error {
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], uint64(n))
	if _, err := c.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write length header: %w", err)
	}
	return c.Flush()
}

// WriteRawBytes appends buf to the outgoing stream unchanged.
func (c *Codec) WriteRawBytes(buf []byte) error {
	_, err := c.w.Write(buf)
	return err
}

// StreamBody copies exactly n bytes from src to the peer and flushes. Every
// chunk is also written to progress when it is not nil. A short source is an
// error: the peer would otherwise wait for bytes that never come.
func (c *Codec) StreamBody(src io.Reader, n int64, progress io.Writer) (int64, error) {
	buffer := make([]byte, chunkSize)
	var totalbytesent int64
	for totalbytesent < n {
		want := n - totalbytesent
		if want > int64(len(buffer)) {
			want = int64(len(buffer))
		}
		read, err := io.ReadFull(src, buffer[:want])
		if read > 0 {
			if werr := c.WriteRawBytes(buffer[:read]); werr != nil {
				return totalbytesent, fmt.Errorf("write body: %w", werr)
			}
			totalbytesent += int64(read)
			if progress != nil {
				// Display only: a failing progress writer never aborts the body.
				_, _ = progress.Write(buffer[:read])
			}
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				err = fmt.Errorf("source ended after %d of %d bytes: %w", totalbytesent, n, io.ErrUnexpectedEOF)
			}
			return totalbytesent, fmt.Errorf("read body: %w", err)
		}
	}
	if err := c.Flush(); err != nil {
		return totalbytesent, fmt.Errorf("write body: %w", err)
	}
	return totalbytesent, nil
}

// ReadResponse reads one string sent by the peer.
func (c *Codec) ReadResponse() (string, error) {
	resp, err := ReadUTF(c.r)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

func (c *Codec) Flush() error {
	return c.w.Flush()
}
