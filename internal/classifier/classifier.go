// Package classifier decides whether address-bar text is a navigable URL or a
// free-text search query, and turns it into an absolute URL to load.
package classifier

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/starford/omnibar/internal/models"
)

// DefaultSearchEndpoint is the query prefix used when input is not a URL.
const DefaultSearchEndpoint = "https://www.google.com/search?q="

// Query encodings for the search fallback.
const (
	// EncodingPlus replaces spaces with '+' and leaves everything else as typed.
	EncodingPlus = "plus"
	// EncodingPercent applies full query escaping.
	EncodingPercent = "percent"
)

// word is a Unicode word character: letters, marks, decimal digits and
// connector punctuation. RE2's \w is ASCII-only.
const word = `\p{L}\p{M}\p{Nd}\p{Pc}`

// navigable matches an optional http(s) scheme, one or more dot-terminated labels,
// a top-level label of at least two word characters and an optional safe tail.
var navigable = regexp.MustCompile(`^(https?://)?([` + word + `-]+\.)+[` + word + `]{2,}(/[` + word + `\-._~:/?#\[\]@!$&'()*+,;=]*)?$`)

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchEndpoint sets the prefix that search queries are appended to.
func WithSearchEndpoint(prefix string) Option {
	return func(r *Resolver) {
		if prefix != "" {
			r.endpoint = prefix
		}
	}
}

// WithQueryEncoding selects how search text is encoded. Unknown values keep EncodingPlus.
func WithQueryEncoding(enc string) Option {
	return func(r *Resolver) {
		if enc == EncodingPercent {
			r.encoding = EncodingPercent
		}
	}
}

// Resolver classifies input. It is immutable after construction and safe for
// concurrent use.
type Resolver struct {
	endpoint string
	encoding string
}

// New returns a Resolver with the default endpoint and plus encoding unless
// overridden by opts.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		endpoint: DefaultSearchEndpoint,
		encoding: EncodingPlus,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Endpoint returns the configured search prefix.
func (r *Resolver) Endpoint() string { return r.endpoint }

// Encoding returns the configured query encoding.
func (r *Resolver) Encoding() string { return r.encoding }

// Classify resolves input into a Target. It never fails.
func (r *Resolver) Classify(input string) models.Target {
	m := navigable.FindStringSubmatch(input)
	if m != nil {
		target := input
		// The captured scheme decides, not a "http" prefix: "httpbin.org" needs one too.
		if m[1] == "" {
			target = "https://" + input
		}
		return models.Target{Input: input, URL: target, Kind: models.KindURL}
	}
	return models.Target{Input: input, URL: r.endpoint + r.encode(input), Kind: models.KindSearch}
}

// Resolve returns only the URL of Classify(input).
func (r *Resolver) Resolve(input string) string {
	return r.Classify(input).URL
}

// String implements fmt.Stringer.
func (r *Resolver) String() string {
	return fmt.Sprintf("resolver(endpoint=%s, encoding=%s)", r.endpoint, r.encoding)
}

func (r *Resolver) encode(q string) string {
	if r.encoding == EncodingPercent {
		return url.QueryEscape(q)
	}
	return strings.ReplaceAll(q, " ", "+")
}

// IsNavigable reports whether input, taken as a whole, looks like a web address.
func IsNavigable(input string) bool {
	return navigable.MatchString(input)
}

var defaultResolver = New()

// Resolve classifies input with the default search endpoint and plus encoding.
func Resolve(input string) string {
	return defaultResolver.Resolve(input)
}

// Current holds the active Resolver and lets it be replaced while callers keep
// classifying. The zero value uses the default Resolver.
type Current struct {
	p atomic.Pointer[Resolver]
}

// NewCurrent returns a holder initialised with r.
func NewCurrent(r *Resolver) *Current {
	c := &Current{}
	c.Store(r)
	return c
}

// Load returns the active Resolver.
func (c *Current) Load() *Resolver {
	if r := c.p.Load(); r != nil {
		return r
	}
	return defaultResolver
}

// Store swaps in r. A nil r is ignored.
func (c *Current) Store(r *Resolver) {
	if r != nil {
		c.p.Store(r)
	}
}

// Classify delegates to the active Resolver.
func (c *Current) Classify(input string) models.Target {
	return c.Load().Classify(input)
}
