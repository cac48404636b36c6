package roles

import (
	"github.com/gatehouse-project/gatehouse/api"
)

// Option is a func that sets optional attributes for a call. This does not
// need to be used directly, but instead option arguments are built from the
// functions in this package. WithX options set a value to that given in the
// argument; DefaultX options indicate that the value should be set to its
// default. When an API call is made options are processed in the order they
// appear in the function call, so for a given argument X, a succession of
// WithX or DefaultX calls will result in the last call taking effect.
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

// WithDisplayName filters List to roles with the given (exact,
// case-sensitive) display name. More than one role can match when services
// reuse a display name.
func WithDisplayName(name string) Option {
	return func(o *options) {
		o.queryMap["display_name"] = name
	}
}

// WithService filters List to roles owned by the given service.
func WithService(service string) Option {
	return func(o *options) {
		o.queryMap["service"] = service
	}
}

// WithWorkspaceId overrides the client's workspace for this call only.
func WithWorkspaceId(id string) Option {
	return func(o *options) {
		o.withWorkspaceId = id
	}
}
