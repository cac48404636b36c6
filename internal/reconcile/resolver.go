package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/gatehouse-project/gatehouse/api/principals"
	"github.com/gatehouse-project/gatehouse/api/roles"
	"github.com/gatehouse-project/gatehouse/internal/grn"
	"github.com/hashicorp/go-hclog"
)

// ResolvedRole is a role display name resolved to its canonical identifier
// plus the capability flag the validator needs.
type ResolvedRole struct {
	Grn            string
	DisplayName    string
	Service        string
	WorkspaceLevel bool
}

// Resolver turns human-readable names into canonical platform identifiers.
// Results are cached for the life of the Resolver; a batch run shares one
// Resolver so repeated references to the same role or scope group cost one
// lookup. The caches are only ever appended to, so sharing across workers is
// safe under the read-write lock.
type Resolver struct {
	gateway DirectoryGateway
	logger  hclog.Logger

	mu         sync.RWMutex
	roleCache  map[string]*ResolvedRole
	scopeCache map[string]string
	principals map[string]*principals.Principal
}

// NewResolver returns a Resolver over the given gateway.
func NewResolver(gateway DirectoryGateway, logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{
		gateway:    gateway,
		logger:     logger,
		roleCache:  make(map[string]*ResolvedRole),
		scopeCache: make(map[string]string),
		principals: make(map[string]*principals.Principal),
	}
}

// ResolveRole resolves a role display name to exactly one canonical
// identifier. Display names are not unique across services; when several
// roles share one, the tie-break is deterministic: candidates are stable
// sorted by GRN and a platform-defined ("builtin.") role wins over
// service-defined ones. The bias toward builtin roles is a deliberate,
// documented rule, not an accident of response ordering.
func (r *Resolver) ResolveRole(ctx context.Context, displayName string) (*ResolvedRole, error) {
	if displayName == "" {
		return nil, newError(CodeNotFound, "no role display name given")
	}

	r.mu.RLock()
	cached, ok := r.roleCache[displayName]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	candidates, err := r.gateway.LookupRole(ctx, displayName)
	if err != nil {
		return nil, classifyLookupErr(err, "role %q", displayName)
	}

	chosen := preferBuiltinRole(candidates)
	if len(candidates) > 1 {
		r.logger.Debug("role display name is ambiguous, applied builtin-role tie-break",
			"display_name", displayName, "candidates", len(candidates), "chosen", chosen.Grn)
	}

	resolved := &ResolvedRole{
		Grn:            chosen.Grn,
		DisplayName:    chosen.DisplayName,
		Service:        chosen.Service,
		WorkspaceLevel: chosen.WorkspaceLevel,
	}

	r.mu.Lock()
	r.roleCache[displayName] = resolved
	r.mu.Unlock()

	return resolved, nil
}

// preferBuiltinRole picks one role out of a set of display-name collisions:
// stable sort by GRN, then the first builtin role if any, otherwise the first
// candidate. Repeated resolution always returns the same role.
func preferBuiltinRole(candidates []*roles.Role) *roles.Role {
	sorted := make([]*roles.Role, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Grn < sorted[j].Grn
	})

	for _, c := range sorted {
		if grn.IsBuiltinRoleGrn(c.Grn) {
			return c
		}
	}
	return sorted[0]
}

// ResolveScopeGroups resolves scope group names into canonical GRNs. A name
// that does not resolve fails the whole set with an error naming the
// offending scope group.
func (r *Resolver) ResolveScopeGroups(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	grns := make([]string, 0, len(names))
	for _, name := range names {
		r.mu.RLock()
		cached, ok := r.scopeCache[name]
		r.mu.RUnlock()
		if ok {
			grns = append(grns, cached)
			continue
		}

		sg, err := r.gateway.LookupScopeGroup(ctx, name)
		if err != nil {
			return nil, classifyLookupErr(err, "scope group %q", name)
		}

		r.mu.Lock()
		r.scopeCache[name] = sg.Grn
		r.mu.Unlock()
		grns = append(grns, sg.Grn)
	}

	return grns, nil
}

// ResolvePrincipal resolves an email or group name to the principal record,
// including the authentication source the engine's SSO guard needs.
func (r *Resolver) ResolvePrincipal(ctx context.Context, ref string) (*principals.Principal, error) {
	if ref == "" {
		return nil, newError(CodeNotFound, "no principal reference given")
	}

	r.mu.RLock()
	cached, ok := r.principals[ref]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	p, err := r.gateway.LookupPrincipal(ctx, ref)
	if err != nil {
		return nil, classifyLookupErr(err, "principal %q", ref)
	}

	r.mu.Lock()
	r.principals[ref] = p
	r.mu.Unlock()

	return p, nil
}

// classifyLookupErr maps a gateway error onto the engine taxonomy: a 404
// becomes NotFound, anything else is a transient lookup failure with the
// platform's code and status carried along.
func classifyLookupErr(err error, format string, args ...any) error {
	if errors.Is(err, api.ErrNotFound) {
		return wrapError(CodeNotFound, err, format, args...)
	}
	return wrapError(CodeTransientLookup, err, format, args...)
}
