// Package local implements an in-process coordinator of a single stream. It serves the
// request body from a transport.Client, decoding the chunked transfer coding if needed,
// and collects the frames dispatched by the request side instead of writing them out.
//
// It's a building block for running handlers without a server, e.g. in tests or when
// the request is replayed from a dump.
package local

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/transport"
	"go.uber.org/zap"
)

// Framing describes how the request body is delimited.
type Framing struct {
	// Chunked enables the chunked transfer coding. Length is ignored then.
	Chunked bool
	// Trailer tells whether trailer fields may follow the last chunk.
	Trailer bool
	// Length is the Content-Length of a plain body.
	Length int64
	// MaxLength limits the total body length. Zero means no limit.
	MaxLength int64
}

var _ transport.Peer = new(Coordinator)

// Coordinator serves body reads of a single stream. Every ReadBody is served by a dedicated
// reader goroutine in the order of arrival, so replies are never reordered.
type Coordinator struct {
	client  transport.Client
	framing Framing
	parser  *chunkedbody.Parser
	log     *zap.Logger

	reads chan transport.ReadBody
	inbox chan transport.Message
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once

	// accessed only by the reader goroutine
	left     int64
	received int64
	over     bool

	mu     sync.Mutex
	frames []transport.Message
}

func New(client transport.Client, framing Framing, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Coordinator{
		client:  client,
		framing: framing,
		parser:  chunkedbody.NewParser(chunkedbody.DefaultSettings()),
		log:     log,
		reads:   make(chan transport.ReadBody, 1),
		inbox:   make(chan transport.Message, 1),
		quit:    make(chan struct{}),
		left:    framing.Length,
	}

	c.wg.Add(1)
	go c.serve()

	return c
}

// Inbox returns the channel the body chunks are delivered to. It's closed when the body
// can't be read anymore due to an error.
func (c *Coordinator) Inbox() <-chan transport.Message {
	return c.inbox
}

func (c *Coordinator) Send(stream transport.StreamID, msg transport.Message) {
	if read, ok := msg.(transport.ReadBody); ok {
		select {
		case c.reads <- read:
		case <-c.quit:
		}

		return
	}

	c.log.Debug("frame", zap.Uint32("stream", uint32(stream)), zap.Any("message", msg))

	c.mu.Lock()
	c.frames = append(c.frames, msg)
	c.mu.Unlock()
}

// Frames returns every frame dispatched so far, except body reads.
func (c *Coordinator) Frames() []transport.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]transport.Message(nil), c.frames...)
}

// Close stops the reader goroutine and closes the client.
func (c *Coordinator) Close() error {
	c.once.Do(func() {
		close(c.quit)
	})

	err := c.client.Close()
	c.wg.Wait()

	return err
}

func (c *Coordinator) serve() {
	defer c.wg.Done()

	for {
		select {
		case read := <-c.reads:
			chunk, err := c.gather(read)
			if err != nil {
				c.log.Error("reading request body", zap.Error(err))
				close(c.inbox)
				return
			}

			select {
			case c.inbox <- chunk:
			case <-c.quit:
				return
			}
		case <-c.quit:
			return
		}
	}
}

// gather collects the body until either read.Length bytes are accumulated, the period
// elapses or the body is over. The period is checked between the reads, so a single
// blocking read may exceed it by the client's own read timeout.
func (c *Coordinator) gather(read transport.ReadBody) (transport.BodyChunk, error) {
	deadline := time.Now().Add(read.Period)
	chunk := transport.BodyChunk{Token: read.Token}

	for !c.over && len(chunk.Data) < read.Length && time.Now().Before(deadline) {
		data, err := c.next()
		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded) && len(chunk.Data) > 0:
			return chunk, nil
		default:
			return chunk, err
		}

		// the data belongs to the client's buffer and must be copied
		chunk.Data = append(chunk.Data, data...)
	}

	if c.over {
		chunk.Fin = transport.Fin
		chunk.Length = c.received
	}

	return chunk, nil
}

// next returns the next piece of the decoded body.
func (c *Coordinator) next() ([]byte, error) {
	var (
		piece []byte
		err   error
	)

	if c.framing.Chunked {
		piece, err = c.nextChunked()
	} else {
		piece, err = c.nextPlain()
	}

	if err != nil {
		return nil, err
	}

	c.received += int64(len(piece))
	if c.framing.MaxLength > 0 && c.received > c.framing.MaxLength {
		return nil, status.ErrBodyTooLarge
	}

	return piece, nil
}

func (c *Coordinator) nextPlain() ([]byte, error) {
	if c.left <= 0 {
		c.over = true
		return nil, nil
	}

	data, err := c.client.Read()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, err
	}

	if int64(len(data)) >= c.left {
		data, extra := data[:c.left], data[c.left:]
		c.client.Pushback(extra)
		c.left = 0
		c.over = true

		return data, nil
	}

	c.left -= int64(len(data))
	return data, nil
}

func (c *Coordinator) nextChunked() ([]byte, error) {
	data, err := c.client.Read()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, err
	}

	chunk, extra, err := c.parser.Parse(data, c.framing.Trailer)
	switch err {
	case nil:
	case io.EOF:
		c.over = true
	default:
		return nil, status.Malformed("body", status.ErrBadRequest, "%s", err)
	}

	c.client.Pushback(extra)
	return chunk, nil
}
