package indexer

import (
	"github.com/rs/zerolog"
)

type config struct {
	logger     *zerolog.Logger
	name       string
	queueLimit int
}

// Option configures an Index.
type Option func(*config)

// WithLogger sets the logger of the index and its worker.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = &l }
}

// WithName names the index worker. Defaults to "indexer".
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithQueueLimit bounds the number of pending updates per priority.
// Updates posted to a full queue fail with threadcore.ErrResource.
func WithQueueLimit(n int) Option {
	return func(c *config) { c.queueLimit = n }
}
