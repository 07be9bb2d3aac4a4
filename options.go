package threadcore

import (
	"fmt"

	"github.com/rs/zerolog"
)

// workerOptions holds configuration options for Worker creation.
type workerOptions struct {
	logger     *zerolog.Logger
	name       string
	queueLimit int
	onDestruct func()
}

// Option configures a Worker.
type Option interface {
	applyWorker(*workerOptions) error
}

// workerOptionImpl implements Option.
type workerOptionImpl struct {
	applyWorkerFunc func(*workerOptions) error
}

func (o *workerOptionImpl) applyWorker(opts *workerOptions) error {
	return o.applyWorkerFunc(opts)
}

// WithLogger sets the logger of the worker. Defaults to the package logger
// (see SetLogger).
func WithLogger(l zerolog.Logger) Option {
	return &workerOptionImpl{func(opts *workerOptions) error {
		opts.logger = &l
		return nil
	}}
}

// WithName names the worker in its log lines.
func WithName(name string) Option {
	return &workerOptionImpl{func(opts *workerOptions) error {
		opts.name = name
		return nil
	}}
}

// WithQueueLimit bounds every priority queue to n pending messages.
// PostMessage on a full queue fails with ErrResource. 0 means unbounded.
func WithQueueLimit(n int) Option {
	return &workerOptionImpl{func(opts *workerOptions) error {
		if n < 0 {
			return fmt.Errorf("%w: negative queue limit %d", ErrState, n)
		}
		opts.queueLimit = n
		return nil
	}}
}

// WithOnDestruct registers a hook run once on the worker's thread when its
// dispatch loop ends, after the handler's own OnDestruct if it has one.
func WithOnDestruct(fn func()) Option {
	return &workerOptionImpl{func(opts *workerOptions) error {
		opts.onDestruct = fn
		return nil
	}}
}

// resolveWorkerOptions applies Option instances to workerOptions.
func resolveWorkerOptions(opts []Option) (*workerOptions, error) {
	cfg := &workerOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyWorker(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
