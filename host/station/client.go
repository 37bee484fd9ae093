// Package station talks to the servo station over its serial console.
package station

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"servostation/host/serial"
)

// DefaultQuiet is how long Exec waits for another reply line before it
// considers the reply complete
const DefaultQuiet = 200 * time.Millisecond

// ErrClosed is returned after the client has been closed
var ErrClosed = errors.New("station connection closed")

// Client represents a connection to a station
type Client struct {
	port serial.Port

	lines chan string
	done  chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Connect opens the serial port and starts reading station output
func Connect(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		glog.Warningf("flush %s: %v", cfg.Device, err)
	}
	return NewClient(port), nil
}

// NewClient wraps an open port
func NewClient(port serial.Port) *Client {
	c := &Client{
		port:  port,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// readLoop splits station output into lines. A read that returns no data
// is the port's read timeout, not the end of the stream.
func (c *Client) readLoop() {
	defer close(c.lines)

	r := bufio.NewReader(c.port)
	var line strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && !c.isClosed() {
				continue
			}
			if !c.isClosed() {
				c.setErr(err)
				glog.Errorf("station read: %v", err)
			}
			return
		}
		switch b {
		case '\r':
		case '\n':
			text := line.String()
			line.Reset()
			glog.V(2).Infof("station: %q", text)
			select {
			case c.lines <- text:
			case <-c.done:
				return
			}
		default:
			line.WriteByte(b)
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Err returns the error that stopped the reader, if any
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Lines delivers station output one line at a time. It is closed when the
// reader stops.
func (c *Client) Lines() <-chan string {
	return c.lines
}

// Send writes one command line terminated by a carriage return
func (c *Client) Send(line string) error {
	if c.isClosed() {
		return ErrClosed
	}
	line = strings.TrimRight(line, "\r\n")
	glog.V(1).Infof("send %q", line)
	_, err := io.WriteString(c.port, line+"\r")
	return err
}

// Exec sends a command and collects the reply lines. The station echoes
// the command back; that echo is dropped. The reply ends when no line has
// arrived for quiet.
func (c *Client) Exec(ctx context.Context, line string, quiet time.Duration) ([]string, error) {
	c.Drain()
	if err := c.Send(line); err != nil {
		return nil, err
	}

	echo := strings.TrimSpace(line)
	var reply []string
	echoed := false
	timer := time.NewTimer(quiet)
	defer timer.Stop()

	for {
		select {
		case text, ok := <-c.lines:
			if !ok {
				if err := c.Err(); err != nil {
					return reply, err
				}
				return reply, ErrClosed
			}
			if !echoed && strings.TrimSpace(text) == echo {
				echoed = true
			} else {
				reply = append(reply, text)
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(quiet)
		case <-timer.C:
			return reply, nil
		case <-ctx.Done():
			return reply, ctx.Err()
		}
	}
}

// Drain discards output already received
func (c *Client) Drain() {
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Close stops the reader and closes the port
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	return c.port.Close()
}
