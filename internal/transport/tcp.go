package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
)

type lineConn struct {
	conn      net.Conn
	scanner   *bufio.Scanner
	closeOnce sync.Once
	closeErr  error
}

// NewLineConn wraps a stream connection. Lines longer than maxLineLength
// bytes end the connection with ErrLineTooLong.
func NewLineConn(conn net.Conn, maxLineLength int) Conn {
	scanner := bufio.NewScanner(conn)
	if maxLineLength <= 0 {
		maxLineLength = bufio.MaxScanTokenSize
	}
	scanner.Buffer(make([]byte, 0, min(maxLineLength, 4096)), maxLineLength+1)
	return &lineConn{conn: conn, scanner: scanner}
}

func (c *lineConn) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		err := c.scanner.Err()
		if errors.Is(err, bufio.ErrTooLong) {
			return "", ErrLineTooLong
		}
		if err == nil {
			err = io.EOF
		}
		return "", err
	}
	return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
}

func (c *lineConn) WriteLine(line string) error {
	data := []byte(line + "\n")
	total := 0
	for total < len(data) {
		n, err := c.conn.Write(data[total:])
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

func (c *lineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *lineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
