// Package transport describes the messages exchanged between a request goroutine and the
// coordinator owning the connection. The coordinator frames the messages on the wire; the
// request side never touches the connection itself.
package transport

import (
	"time"

	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/kv"
)

// StreamID identifies the stream within a connection. HTTP/1.x connections always use
// a single stream at a time.
type StreamID uint32

// Peer is the coordinator of a connection. Send never blocks for long and never fails:
// messages addressed to a dead connection are silently dropped.
type Peer interface {
	Send(stream StreamID, msg Message)
}

// Message is either of the types declared in this package.
type Message interface {
	message()
}

// Finality marks whether the data frame is the last one.
type Finality bool

const (
	NoFin Finality = false
	Fin   Finality = true
)

func (f Finality) String() string {
	if f {
		return "fin"
	}

	return "nofin"
}

type (
	// ReadBody requests the next piece of the request body. The coordinator answers with
	// BodyChunk carrying the same Token as soon as either Length bytes are gathered, the
	// Period elapsed or the body is complete.
	ReadBody struct {
		Token  string
		Length int
		Period time.Duration
	}

	// BodyChunk is the answer to ReadBody. Length is the total body length and is
	// only meaningful when Fin is set.
	BodyChunk struct {
		Token  string
		Fin    Finality
		Length int64
		Data   []byte
	}

	// File is a region of a file to be transmitted by the coordinator, possibly using
	// sendfile(2).
	File struct {
		Path   string
		Offset int64
		Length int64
	}

	// Response is a complete response. Either Body or File is set.
	Response struct {
		Code    status.Code
		Headers *kv.Storage
		Body    []byte
		File    *File
	}

	// StreamHeaders starts a streamed response.
	StreamHeaders struct {
		Code    status.Code
		Headers *kv.Storage
	}

	// StreamData is a piece of a streamed response body.
	StreamData struct {
		Fin  Finality
		Data []byte
	}

	// StreamTrailers terminates a streamed response with trailer fields.
	StreamTrailers struct {
		Headers *kv.Storage
	}

	// Inform is an informational (1xx) response.
	Inform struct {
		Code    status.Code
		Headers *kv.Storage
	}

	// PushPromise asks the coordinator to push a resource. Coordinators of connections
	// not supporting server push ignore it.
	PushPromise struct {
		Method  string
		Scheme  string
		Host    string
		Port    int
		Path    string
		Query   string
		Headers *kv.Storage
	}
)

func (ReadBody) message()       {}
func (BodyChunk) message()      {}
func (Response) message()       {}
func (StreamHeaders) message()  {}
func (StreamData) message()     {}
func (StreamTrailers) message() {}
func (Inform) message()         {}
func (PushPromise) message()    {}
