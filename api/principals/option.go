package principals

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

// WithReference filters List to the principal with the given reference: an
// email address for users, a group name for groups.
func WithReference(ref string) Option {
	return func(o *options) {
		o.queryMap["reference"] = ref
	}
}

// WithType filters List to principals of the given type ("user" or "group").
func WithType(principalType string) Option {
	return func(o *options) {
		o.queryMap["type"] = principalType
	}
}

// WithWorkspaceId overrides the client's workspace for this call only.
func WithWorkspaceId(id string) Option {
	return func(o *options) {
		o.withWorkspaceId = id
	}
}
