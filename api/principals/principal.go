// Package principals provides the client for Gatehouse principals: the users
// and user groups that can hold role assignments.
package principals

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gatehouse-project/gatehouse/api"
)

const (
	TypeUser  = "user"
	TypeGroup = "group"
)

// Authentication sources. Only locally managed principals can have their
// assignments mutated through this API; principals provisioned by an external
// identity provider are managed there.
const (
	AuthSourceLocal    = "local"
	AuthSourceSso      = "sso"
	AuthSourceExternal = "external"
)

type Principal struct {
	Id          string    `json:"id,omitempty"`
	Grn         string    `json:"grn,omitempty"`
	Type        string    `json:"type,omitempty"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	AuthSource  string    `json:"auth_source,omitempty"`
	Version     uint32    `json:"version,omitempty"`
	CreatedTime time.Time `json:"created_time,omitempty"`
	UpdatedTime time.Time `json:"updated_time,omitempty"`
}

// Reference returns the human-facing handle for the principal: the email for
// users, the group name for groups.
func (p *Principal) Reference() string {
	if p.Type == TypeGroup {
		return p.Name
	}
	return p.Email
}

type Client struct {
	client *api.Client
}

func NewClient(c *api.Client) *Client {
	return &Client{client: c}
}

// List returns the principals in the workspace. WithReference filters by
// email (users) or name (groups) server-side. The result is always a list.
func (c *Client) List(ctx context.Context, opt ...Option) ([]*Principal, *api.Error, error) {
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	opts, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", "principals", nil, apiOpts...)
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

	var items []*Principal
	apiErr, err := resp.DecodeItems(&items)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding List response: %w", err)
	}

	return items, apiErr, nil
}

// Read returns a single principal by its ID.
func (c *Client) Read(ctx context.Context, principalId string, opt ...Option) (*Principal, *api.Error, error) {
	if principalId == "" {
		return nil, nil, fmt.Errorf("empty principalId value passed into Read request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	_, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", fmt.Sprintf("principals/%s", url.PathEscape(principalId)), nil, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating Read request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during Read call: %w", err)
	}

	target := new(Principal)
	apiErr, err := resp.Decode(target)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding Read response: %w", err)
	}

	return target, apiErr, nil
}
