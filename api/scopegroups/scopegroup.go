// Package scopegroups provides the client for Gatehouse scope groups: named,
// filtered subsets of a workspace's resources that scopable roles can be
// restricted to.
package scopegroups

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gatehouse-project/gatehouse/api"
)

type ScopeGroup struct {
	Id          string    `json:"id,omitempty"`
	Grn         string    `json:"grn,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Region      string    `json:"region,omitempty"`
	Version     uint32    `json:"version,omitempty"`
	CreatedTime time.Time `json:"created_time,omitempty"`
	UpdatedTime time.Time `json:"updated_time,omitempty"`
}

type Client struct {
	client *api.Client
}

func NewClient(c *api.Client) *Client {
	return &Client{client: c}
}

// List returns the scope groups in the workspace, optionally filtered with
// WithName. The result is always a list regardless of result cardinality.
func (c *Client) List(ctx context.Context, opt ...Option) ([]*ScopeGroup, *api.Error, error) {
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	opts, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", "scope-groups", nil, apiOpts...)
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

	var items []*ScopeGroup
	apiErr, err := resp.DecodeItems(&items)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding List response: %w", err)
	}

	return items, apiErr, nil
}

// Read returns a single scope group by its ID.
func (c *Client) Read(ctx context.Context, scopeGroupId string, opt ...Option) (*ScopeGroup, *api.Error, error) {
	if scopeGroupId == "" {
		return nil, nil, fmt.Errorf("empty scopeGroupId value passed into Read request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	_, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", fmt.Sprintf("scope-groups/%s", url.PathEscape(scopeGroupId)), nil, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating Read request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during Read call: %w", err)
	}

	target := new(ScopeGroup)
	apiErr, err := resp.Decode(target)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding Read response: %w", err)
	}

	return target, apiErr, nil
}
