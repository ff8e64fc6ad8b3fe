package config

import (
	"time"
)

type (
	// Read holds the limits of a single body read operation.
	Read struct {
		// Length is a soft limit of how many bytes are requested from the transport at once.
		// The transport may return fewer, but also slightly more bytes.
		Length int
		// Period is the maximal time the transport waits for more data before returning
		// whatever it has gathered so far.
		Period time.Duration
		// Timeout is the hard deadline of the whole read. Zero means Period plus a second.
		Timeout time.Duration `test:"nullable"`
	}

	Body struct {
		// Read are the defaults for http.Request.ReadBody.
		Read Read
	}

	Form struct {
		// Read are the defaults for reading application/x-www-form-urlencoded bodies. Length
		// is also the maximal size of the whole body.
		Read Read
		// FlagValue is the value of parameters passed without an equal sign.
		FlagValue string
	}

	Multipart struct {
		// Headers are the defaults for reading part headers.
		Headers Read
		// Body are the defaults for reading part bodies. Length is the threshold after which
		// a partial part body is returned.
		Body Read
	}

	Headers struct {
		// Server is the value of the Server header included into every response, unless
		// explicitly overridden.
		Server string
		// Default headers are headers to be included into every response implicitly, unless
		// explicitly overridden.
		Default map[string]string `test:"nullable"`
	}
)

// Config holds settings used across various parts of the request API, mainly
// read limits and default response headers.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Body      Body
	Form      Form
	Multipart Multipart
	Headers   Headers
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Body: Body{
			Read: Read{
				Length: 8_000_000,
				Period: 15 * time.Second,
			},
		},
		Form: Form{
			Read: Read{
				Length: 64_000,
				Period: 5 * time.Second,
			},
			FlagValue: "1",
		},
		Multipart: Multipart{
			Headers: Read{
				Length: 64_000,
				Period: 5 * time.Second,
			},
			Body: Read{
				Length: 8_000_000,
				Period: 15 * time.Second,
			},
		},
		Headers: Headers{
			Server:  "indigo",
			Default: make(map[string]string),
		},
	}
}

// Merge returns r with every zero field replaced by the value from defaults. The default
// timeout is inherited only together with the default period; otherwise the timeout is
// derived from the resulting period, so it never elapses before the period does.
func (r Read) Merge(defaults Read) Read {
	if r.Length <= 0 {
		r.Length = defaults.Length
	}

	if r.Period <= 0 {
		r.Period = defaults.Period

		if r.Timeout <= 0 {
			r.Timeout = defaults.Timeout
		}
	}

	if r.Timeout <= 0 {
		r.Timeout = r.Period + time.Second
	}

	return r
}
