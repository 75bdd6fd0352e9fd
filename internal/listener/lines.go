package listener

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
)

// maxFrameSize caps a single inbound line.
const maxFrameSize = 64 * 1024

// lineConn frames JSON messages one per line over a byte stream.
type lineConn struct {
	rw      io.ReadWriter
	closer  io.Closer
	scanner *bufio.Scanner
	crlf    bool

	mu sync.Mutex
}

// newLineConn wraps rw. With crlf set, outbound lines end in \r\n as telnet
// expects. Inbound \r\n and bare \r are both accepted as line endings.
func newLineConn(rw io.ReadWriter, closer io.Closer, crlf bool) *lineConn {
	s := bufio.NewScanner(rw)
	s.Buffer(make([]byte, 4096), maxFrameSize)
	s.Split(scanLines)
	return &lineConn{
		rw:      rw,
		closer:  closer,
		scanner: s,
		crlf:    crlf,
	}
}

// ReadFrame returns the next non-blank line.
func (c *lineConn) ReadFrame(ctx context.Context) ([]byte, error) {
	for c.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(c.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return append([]byte(nil), line...), nil
	}
	if err := c.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (c *lineConn) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := []byte("\n")
	if c.crlf {
		end = []byte("\r\n")
	}
	_, err := c.rw.Write(append(append([]byte(nil), data...), end...))
	return err
}

func (c *lineConn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// scanLines splits on either \r or \n. A \r\n pair yields an empty line
// that ReadFrame skips.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
