// Package assignments provides the client for Gatehouse role assignments:
// the binding of one role to one principal, scoped either to the entire
// workspace or to an explicit set of scope groups. For a given (principal,
// role) pair the platform maintains at most one assignment; a scope change is
// an update of that assignment, never a second one.
package assignments

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gatehouse-project/gatehouse/api"
)

type Assignment struct {
	Id          string    `json:"id,omitempty"`
	PrincipalId string    `json:"principal_id,omitempty"`
	RoleGrn     string    `json:"role_grn,omitempty"`
	// ScopeGroupGrns is the explicit scope of the assignment. Empty means the
	// role applies to the entire workspace.
	ScopeGroupGrns []string  `json:"scope_group_grns,omitempty"`
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

// List returns the assignments held by the given principal. A principal with
// no assignments yields an empty list, not an error.
func (c *Client) List(ctx context.Context, principalId string, opt ...Option) ([]*Assignment, *api.Error, error) {
	if principalId == "" {
		return nil, nil, fmt.Errorf("empty principalId value passed into List request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	opts, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", "assignments", nil, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating List request: %w", err)
	}

	q := url.Values{}
	q.Add("principal_id", principalId)
	for k, v := range opts.queryMap {
		q.Add(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during List call: %w", err)
	}

	var items []*Assignment
	apiErr, err := resp.DecodeItems(&items)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding List response: %w", err)
	}

	return items, apiErr, nil
}

// Read returns a single assignment by its ID.
func (c *Client) Read(ctx context.Context, assignmentId string, opt ...Option) (*Assignment, *api.Error, error) {
	if assignmentId == "" {
		return nil, nil, fmt.Errorf("empty assignmentId value passed into Read request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	_, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "GET", fmt.Sprintf("assignments/%s", url.PathEscape(assignmentId)), nil, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating Read request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during Read call: %w", err)
	}

	target := new(Assignment)
	apiErr, err := resp.Decode(target)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding Read response: %w", err)
	}

	return target, apiErr, nil
}

// Create binds the role to the principal with the given scope. An empty
// scopeGroupGrns binds the role workspace-wide. The platform answers 409 if
// an assignment for the (principal, role) pair already exists; callers decide
// what that means for them.
func (c *Client) Create(ctx context.Context, principalId, roleGrn string, scopeGroupGrns []string, opt ...Option) (*Assignment, *api.Error, error) {
	if principalId == "" {
		return nil, nil, fmt.Errorf("empty principalId value passed into Create request")
	}
	if roleGrn == "" {
		return nil, nil, fmt.Errorf("empty roleGrn value passed into Create request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	_, apiOpts := getOpts(opt...)

	body := map[string]any{
		"principal_id": principalId,
		"role_grn":     roleGrn,
	}
	if len(scopeGroupGrns) > 0 {
		body["scope_group_grns"] = scopeGroupGrns
	}

	req, err := c.client.NewRequest(ctx, "POST", "assignments", body, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating Create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during Create call: %w", err)
	}

	target := new(Assignment)
	apiErr, err := resp.Decode(target)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding Create response: %w", err)
	}

	return target, apiErr, nil
}

// SetScope replaces the scope of an existing assignment with the given scope
// group GRNs; a nil or empty list sets the assignment back to workspace-wide.
// version is used for check-and-set; pass WithAutomaticVersioning to have the
// current version fetched first.
func (c *Client) SetScope(ctx context.Context, assignmentId string, version uint32, scopeGroupGrns []string, opt ...Option) (*Assignment, *api.Error, error) {
	if assignmentId == "" {
		return nil, nil, fmt.Errorf("empty assignmentId value passed into SetScope request")
	}
	if c.client == nil {
		return nil, nil, fmt.Errorf("nil client")
	}

	opts, apiOpts := getOpts(opt...)

	if version == 0 {
		if !opts.withAutomaticVersioning {
			return nil, nil, fmt.Errorf("zero version number passed into SetScope request and automatic versioning not specified")
		}
		existing, existingApiErr, existingErr := c.Read(ctx, assignmentId, opt...)
		if existingErr != nil {
			return nil, nil, fmt.Errorf("error performing initial check-and-set read: %w", existingErr)
		}
		if existingApiErr != nil {
			return nil, existingApiErr, nil
		}
		version = existing.Version
	}

	body := map[string]any{
		// A non-nil empty list means clear out, back to workspace-wide
		"scope_group_grns": scopeGroupGrns,
	}

	req, err := c.client.NewRequest(ctx, "POST", fmt.Sprintf("assignments/%s:set-scope", url.PathEscape(assignmentId)), body, apiOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating SetScope request: %w", err)
	}

	q := url.Values{}
	q.Add("version", fmt.Sprintf("%d", version))
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error performing client request during SetScope call: %w", err)
	}

	target := new(Assignment)
	apiErr, err := resp.Decode(target)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding SetScope response: %w", err)
	}

	return target, apiErr, nil
}

// Delete removes an assignment. The platform answers either 204 with no body
// or a small JSON body with an "existed" field; both count as success, keyed
// off the status code alone.
func (c *Client) Delete(ctx context.Context, assignmentId string, opt ...Option) (bool, *api.Error, error) {
	if assignmentId == "" {
		return false, nil, fmt.Errorf("empty assignmentId value passed into Delete request")
	}
	if c.client == nil {
		return false, nil, fmt.Errorf("nil client")
	}

	_, apiOpts := getOpts(opt...)

	req, err := c.client.NewRequest(ctx, "DELETE", fmt.Sprintf("assignments/%s", url.PathEscape(assignmentId)), nil, apiOpts...)
	if err != nil {
		return false, nil, fmt.Errorf("error creating Delete request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("error performing client request during Delete call: %w", err)
	}

	target := &struct {
		Existed bool `json:"existed,omitempty"`
	}{Existed: true}
	apiErr, err := resp.Decode(target)
	if err != nil {
		return false, nil, fmt.Errorf("error decoding Delete response: %w", err)
	}
	if apiErr != nil {
		return false, apiErr, nil
	}

	return target.Existed, nil, nil
}
