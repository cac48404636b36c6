package api

// Option is a func that sets optional attributes for a call. This does not
// need to be used directly, but instead option arguments are built from the
// functions in this package. WithX options set a value to that given in the
// argument; DefaultX options indicate that the value should be set to its
// default. When an API call is made options are processed in the order they
// appear in the function call, so for a given argument X, a succession of
// WithX or DefaultX calls will result in the last call taking effect.
type Option func(*options)

type options struct {
	withWorkspaceId string
	withQueryMap    map[string]string
}

func getDefaultOptions() options {
	return options{
		withQueryMap: make(map[string]string),
	}
}

func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithWorkspaceId overrides the client's workspace for this call only.
func WithWorkspaceId(id string) Option {
	return func(o *options) {
		o.withWorkspaceId = id
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key, value string) Option {
	return func(o *options) {
		o.withQueryMap[key] = value
	}
}
