package pipeline

import (
	"net/http"

	"github.com/gruppe-adler/demcache/internal/cache"
)

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient sets the client used for tiles and the tile index.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.client = c }
}

// WithSpaceCheck replaces the free disk space pre-flight.
func WithSpaceCheck(check func(needed uint64) error) Option {
	return func(p *Pipeline) { p.checkSpace = check }
}

// WithStateHook is called on every state transition, after it was logged.
func WithStateHook(hook func(key cache.Key, s State)) Option {
	return func(p *Pipeline) { p.hook = hook }
}
