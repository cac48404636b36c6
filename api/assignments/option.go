package assignments

import (
	"github.com/gatehouse-project/gatehouse/api"
)

// Option is a func that sets optional attributes for a call. See the package
// documentation of the api package for ordering semantics.
type Option func(*options)

type options struct {
	queryMap                map[string]string
	withWorkspaceId         string
	withAutomaticVersioning bool
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

// WithRoleGrn filters List to assignments of the given role.
func WithRoleGrn(grn string) Option {
	return func(o *options) {
		o.queryMap["role_grn"] = grn
	}
}

// WithAutomaticVersioning makes SetScope fetch the assignment's current
// version when a zero version is passed. This is convenient but opens up the
// possibility for subtle order-of-modification issues, so use carefully.
func WithAutomaticVersioning() Option {
	return func(o *options) {
		o.withAutomaticVersioning = true
	}
}

// WithWorkspaceId overrides the client's workspace for this call only.
func WithWorkspaceId(id string) Option {
	return func(o *options) {
		o.withWorkspaceId = id
	}
}
