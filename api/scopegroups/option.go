package scopegroups

import (
	"github.com/gatehouse-project/gatehouse/api"
)

// Option is a func that sets optional attributes for a call. See the package
// documentation of the api package for ordering semantics.
type Option func(*options)

type options struct {
	queryMap        map[string]string
	withWorkspaceId string
}

func getDefaultOptions() options {
	return options{
		queryMap: make(map[string]string),
	}
}

func getOpts(opt ...Option) (options, []api.Option) {
	opts := getDefaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	var apiOpts []api.Option
	if opts.withWorkspaceId != "" {
		apiOpts = append(apiOpts, api.WithWorkspaceId(opts.withWorkspaceId))
	}
	return opts, apiOpts
}

// WithName filters List to scope groups with the given (exact,
// case-sensitive) name.
func WithName(name string) Option {
	return func(o *options) {
		o.queryMap["name"] = name
	}
}

// WithRegion filters List to scope groups owned by the given region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.queryMap["region"] = region
	}
}

// WithWorkspaceId overrides the client's workspace for this call only.
func WithWorkspaceId(id string) Option {
	return func(o *options) {
		o.withWorkspaceId = id
	}
}
