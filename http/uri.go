package http

import (
	"strconv"
	"strings"
)

type optState uint8

const (
	inherit optState = iota
	overridden
	disabled
)

// Opt overrides a single component of the URI. The zero value inherits the component
// from the request.
type Opt[T any] struct {
	state optState
	value T
}

// Set overrides the component by the value.
func Set[T any](value T) Opt[T] {
	return Opt[T]{state: overridden, value: value}
}

// Disable omits the component.
func Disable[T any]() Opt[T] {
	return Opt[T]{state: disabled}
}

func (o Opt[T]) resolve(original T) (value T, present bool) {
	switch o.state {
	case overridden:
		return o.value, true
	case disabled:
		return value, false
	default:
		return original, true
	}
}

// URIOptions override components of the reconstructed URI. The fragment is never
// known to the server, so it's empty unless set.
type URIOptions struct {
	Scheme   Opt[string]
	Host     Opt[string]
	Port     Opt[int]
	Path     Opt[string]
	Query    Opt[string]
	Fragment Opt[string]
}

// URI reconstructs the request URI. Default ports of http and https are omitted. They
// stay omitted when the scheme is disabled, so the implicit port isn't exposed either.
// When the scheme is disabled but the host isn't, the URI is a network-path reference
// starting with //.
func (r Request) URI(opts URIOptions) string {
	scheme, hasScheme := opts.Scheme.resolve(r.scheme)
	host, _ := opts.Host.resolve(r.host)
	port, hasPort := opts.Port.resolve(r.port)
	path, _ := opts.Path.resolve(r.path)
	query, _ := opts.Query.resolve(r.query)
	fragment, _ := opts.Fragment.resolve("")

	var sb strings.Builder

	if hasScheme && len(scheme) > 0 {
		sb.WriteString(scheme)
		sb.WriteByte(':')
	}

	if len(host) > 0 {
		sb.WriteString("//")
		sb.WriteString(host)

		if hasPort && port != 0 && !implicitPort(scheme, hasScheme, r.scheme, port) {
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(port))
		}
	}

	sb.WriteString(path)

	if len(query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(query)
	}

	if len(fragment) > 0 {
		sb.WriteByte('#')
		sb.WriteString(fragment)
	}

	return sb.String()
}

func implicitPort(scheme string, hasScheme bool, original string, port int) bool {
	if !hasScheme {
		scheme = original
	}

	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}
