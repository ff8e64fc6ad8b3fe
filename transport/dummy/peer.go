package dummy

import (
	"sync"

	"github.com/indigo-web/exchange/transport"
)

var _ transport.Peer = new(Peer)

// Peer is a scripted coordinator. Every ReadBody is answered by the next body piece it was
// initialised with, the last piece being marked as final. All the received messages are
// journaled, so tests can inspect what the request side has dispatched.
type Peer struct {
	mu      sync.Mutex
	inbox   chan transport.Message
	pieces  [][]byte
	pointer int
	total   int64
	silent  bool
	stale   int
	journal []transport.Message
}

func NewPeer(pieces ...string) *Peer {
	p := &Peer{
		inbox: make(chan transport.Message, 64),
	}

	for _, piece := range pieces {
		p.pieces = append(p.pieces, []byte(piece))
	}

	return p
}

// Silent makes the peer never answer body reads.
func (p *Peer) Silent() *Peer {
	p.silent = true
	return p
}

// Stale makes the peer precede every answer with n answers bearing foreign tokens.
func (p *Peer) Stale(n int) *Peer {
	p.stale = n
	return p
}

// Inbox returns the channel the answers are delivered to.
func (p *Peer) Inbox() <-chan transport.Message {
	return p.inbox
}

func (p *Peer) Send(_ transport.StreamID, msg transport.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.journal = append(p.journal, msg)

	read, ok := msg.(transport.ReadBody)
	if !ok || p.silent {
		return
	}

	for i := 0; i < p.stale; i++ {
		p.inbox <- transport.BodyChunk{Token: "stale-" + read.Token, Data: []byte("garbage")}
	}

	var piece []byte
	if p.pointer < len(p.pieces) {
		piece = p.pieces[p.pointer]
		p.pointer++
	}

	p.total += int64(len(piece))
	chunk := transport.BodyChunk{
		Token: read.Token,
		Fin:   transport.Finality(p.pointer >= len(p.pieces)),
		Data:  piece,
	}

	if chunk.Fin {
		chunk.Length = p.total
	}

	p.inbox <- chunk
}

// Journal returns every message received so far.
func (p *Peer) Journal() []transport.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]transport.Message(nil), p.journal...)
}

// Reads returns the number of received ReadBody messages.
func (p *Peer) Reads() (n int) {
	for _, msg := range p.Journal() {
		if _, ok := msg.(transport.ReadBody); ok {
			n++
		}
	}

	return n
}

// Frames returns every received message except body reads, i.e. the dispatched response.
func (p *Peer) Frames() (frames []transport.Message) {
	for _, msg := range p.Journal() {
		if _, ok := msg.(transport.ReadBody); !ok {
			frames = append(frames, msg)
		}
	}

	return frames
}
