package objtree

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// URI is a parsed data-source address. The query keeps only the last value
// per key.
type URI struct {
	Scheme   string
	Host     string
	Port     int
	Path     string
	Query    map[string]string
	Fragment string
}

// ParseURI parses "scheme://host:port/path?query#fragment". The scheme is
// required; everything else is optional.
func ParseURI(s string) (URI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, &BindError{URI: s, Reason: err.Error()}
	}
	if u.Scheme == "" {
		return URI{}, &BindError{URI: s, Reason: "missing scheme"}
	}
	out := URI{
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Path:     u.Path,
		Fragment: u.Fragment,
		Query:    make(map[string]string),
	}
	if p := u.Port(); p != "" {
		out.Port, err = strconv.Atoi(p)
		if err != nil {
			return URI{}, &BindError{URI: s, Reason: "invalid port"}
		}
	}
	if u.Opaque != "" {
		out.Path = u.Opaque
	}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			out.Query[k] = vs[len(vs)-1]
		}
	}
	return out, nil
}

// options derives binding options from the query: "perm" holds any of the
// letters r, w and c.
func (u URI) options() Options {
	var opts Options
	if perm, ok := u.Query["perm"]; ok {
		var mode Mode
		if strings.ContainsRune(perm, 'r') {
			mode |= ModeRead
		}
		if strings.ContainsRune(perm, 'w') {
			mode |= ModeWrite
		}
		if strings.ContainsRune(perm, 'c') {
			mode |= ModeClobber
		}
		opts.Mode = mode
	}
	return opts
}

// SourceFactory builds an adapter for a parsed URI.
type SourceFactory func(uri URI, opts Options) (DataSource, error)

var schemes = struct {
	sync.Mutex
	m map[string]SourceFactory
}{m: make(map[string]SourceFactory)}

// RegisterScheme associates a URI scheme with an adapter factory. Adapter
// packages call this from init; a later registration replaces an earlier one.
func RegisterScheme(scheme string, factory SourceFactory) {
	schemes.Lock()
	schemes.m[scheme] = factory
	schemes.Unlock()
}

// Open parses the URI, builds an adapter via the scheme's registered factory
// and returns a node bound to it. The "perm" query parameter restricts the
// access mode.
func Open(uri string) (Object, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return Object{}, err
	}
	schemes.Lock()
	factory := schemes.m[u.Scheme]
	schemes.Unlock()
	if factory == nil {
		return Object{}, &BindError{URI: uri, Reason: "unknown scheme " + strconv.Quote(u.Scheme)}
	}
	opts := u.options()
	adapter, err := factory(u, opts)
	if err != nil {
		return Object{}, &BindError{URI: uri, Reason: err.Error()}
	}
	return NewSource(adapter, OriginSource, opts), nil
}
