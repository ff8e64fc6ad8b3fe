package http

import (
	"github.com/indigo-web/exchange/http/fields"
)

// MatchQuery parses the query string and matches it against the spec.
func (r Request) MatchQuery(spec fields.Spec) (map[string]any, error) {
	params, err := r.ParseQuery()
	if err != nil {
		return nil, err
	}

	return fields.Match(spec, params.Pairs())
}

// MatchCookies parses the cookies and matches them against the spec.
func (r Request) MatchCookies(spec fields.Spec) (map[string]any, error) {
	jar, err := r.ParseCookies()
	if err != nil {
		return nil, err
	}

	return fields.Match(spec, jar.Pairs())
}
