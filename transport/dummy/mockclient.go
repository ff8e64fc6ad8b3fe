package dummy

import (
	"io"
	"net"
	"sync"

	"github.com/indigo-web/exchange/transport"
)

var _ transport.Client = new(Client)

// Client returns the data pieces it was initialised with, one per read. After the data is
// exhausted, it either returns io.EOF or, if stalling, blocks until closed, imitating a
// peer which doesn't send anything.
type Client struct {
	mu      sync.Mutex
	closed  chan struct{}
	once    sync.Once
	stall   bool
	pointer int
	tmp     []byte
	data    [][]byte
}

func NewMockClient(data ...[]byte) *Client {
	return &Client{
		data:   data,
		closed: make(chan struct{}),
	}
}

// Stall makes the client block on reads once the data is exhausted.
func (c *Client) Stall() *Client {
	c.stall = true
	return c
}

func (c *Client) Read() (data []byte, err error) {
	c.mu.Lock()

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil
		c.mu.Unlock()

		return data, nil
	}

	if c.pointer >= len(c.data) {
		c.mu.Unlock()

		if c.stall {
			<-c.closed
		}

		return nil, io.EOF
	}

	piece := c.data[c.pointer]
	c.pointer++
	c.mu.Unlock()

	return piece, nil
}

func (c *Client) Pushback(takeback []byte) {
	c.mu.Lock()
	c.tmp = takeback
	c.mu.Unlock()
}

func (*Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.closed)
	})

	return nil
}
