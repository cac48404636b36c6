package reconcile

import (
	"github.com/hashicorp/go-hclog"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	withLogger      hclog.Logger
	withParallelism int
}

func getDefaultOptions() options {
	return options{
		withLogger:      hclog.NewNullLogger(),
		withParallelism: 1,
	}
}

func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithLogger sets the logger the engine emits to. Defaults to a null logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.withLogger = l
		}
	}
}

// WithParallelism allows up to n principals' requests to be reconciled
// concurrently in a batch. Requests for the same principal are always
// processed one at a time, in input order, so at most one mutating call per
// (principal, role) pair is ever in flight. Values below 1 mean sequential.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 1 {
			o.withParallelism = n
		}
	}
}
