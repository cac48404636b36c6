// Package roles provides the client for the Gatehouse roles directory. Roles
// are read-only from the client's perspective: the platform and service
// owners define them, callers look them up.
package roles

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gatehouse-project/gatehouse/api"
)

// Role is a named permission bundle owned by exactly one service. DisplayName
// is human-facing and is not unique across services; Grn is the canonical,
// globally unique identifier. WorkspaceLevel reports whether the role can
// only be bound to the entire workspace, as opposed to a set of scope groups.
type Role struct {
	Id             string    `json:"id,omitempty"`
	Grn            string    `json:"grn,omitempty"`
	DisplayName    string    `json:"display_name,omitempty"`
	Description    string    `json:"description,omitempty"`
	Service        string    `json:"service,omitempty"`
	WorkspaceLevel bool      `json:"workspace_level,omitempty"`
	Version        uint32    `json:"version,omitempty"`
	CreatedTime    time.Time `json:"created_time,omitempty"`
	UpdatedTime    time.Time `json:"updated_time,omitempty"`
}

type Client struct {
	client *api.Client
}

func NewClient(c *api.Client) *Client {
	return &Client{client: c}
}

// List returns the roles visible in the workspace. Use WithDisplayName to
// filter server-side; the result is always a list even when the platform
// answers a single-object body for a one-role match.
func (c *Client) List(ctx context.Context, opt ...Option) ([]*Role, *api.Error, error) {
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	opts, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", "roles", nil, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating List request: %w", err)
	}

	if len(opts.queryMap) > 0 {
		q := url.Values{}
		for k, v := range opts.queryMap {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during List call: %w", err)
	}

	var items []*Role
	apiErr, err := resp.DecodeItems(&items)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding List response: %w", err)
	}

	return items, apiErr, nil
}

// Read returns a single role by its ID.
func (c *Client) Read(ctx context.Context, roleId string, opt ...Option) (*Role, *api.Error, error) {
	if roleId == "" {
		return nil, nil, fmt.Errorf("empty roleId value passed into Read request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	_, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", fmt.Sprintf("roles/%s", url.PathEscape(roleId)), nil, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating Read request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during Read call: %w", err)
	}

	target := new(Role)
	apiErr, err := resp.Decode(target)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding Read response: %w", err)
	}

	return target, apiErr, nil
}
