// Package reconcile implements the role-assignment reconciliation engine:
// resolving human-readable names to canonical identifiers, validating
// role/scope compatibility, diffing desired against current assignments, and
// executing the minimal converging action with idempotent, batch-safe
// semantics.
package reconcile

import (
	"context"

	"github.com/gatehouse-project/gatehouse/api/principals"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
	"golang.org/x/sync/errgroup"
)

// Engine reconciles desired role assignments against current platform state.
// Construct one per run with New; the resolver caches name lookups for the
// life of the Engine.
type Engine struct {
	gateway     DirectoryGateway
	logger      hclog.Logger
	resolver    *Resolver
	executor    *Executor
	stats       *Stats
	parallelism int
}

// New returns an Engine over the given gateway.
func New(gateway DirectoryGateway, opt ...Option) *Engine {
	opts := getOpts(opt...)
	stats := new(Stats)
	return &Engine{
		gateway:     gateway,
		logger:      opts.withLogger,
		resolver:    NewResolver(gateway, opts.withLogger),
		executor:    NewExecutor(gateway, opts.withLogger, stats),
		stats:       stats,
		parallelism: opts.withParallelism,
	}
}

// Stats returns the engine's run counters.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Reconcile converges one desired assignment: resolve, validate, diff,
// execute. It always returns a Result; failures are captured in the Result,
// never panicked or half-applied.
func (e *Engine) Reconcile(ctx context.Context, req Request) Result {
	e.stats.Requests.Inc()
	res := e.reconcileOne(ctx, req)
	e.count(res)
	return res
}

func (e *Engine) reconcileOne(ctx context.Context, req Request) Result {
	result := Result{
		Principal: req.PrincipalRef,
		Role:      req.RoleDisplayName,
	}

	if err := ctx.Err(); err != nil {
		return e.cancelled(result)
	}

	principal, role, desired, res, ok := e.resolveAndValidate(ctx, req, result)
	if !ok {
		return res
	}
	result = res

	state, err := ReadAssignmentState(ctx, e.gateway, principal.Id)
	if err != nil {
		return result.failed(CodeOf(err), err.Error())
	}
	current := state[role.Grn]

	action := Classify(desired, current)
	result.Action = action
	e.logger.Debug("classified request",
		"principal", req.PrincipalRef, "role", role.Grn, "action", action)

	// Last cancellation point before the mutating call; once the call is
	// issued it is allowed to finish, since the platform does no
	// cross-request locking and an abandoned write would leave the
	// assignment silently inconsistent.
	if err := ctx.Err(); err != nil {
		return e.cancelled(result)
	}

	out := e.executor.execute(ctx, &plan{
		principalId: principal.Id,
		role:        role,
		desired:     desired,
		action:      action,
		current:     current,
	})

	result.Status = out.status
	result.Detail = out.detail
	if out.errorCode != "" {
		result.ErrorCode = string(out.errorCode)
	}
	return result
}

// Unassign removes the principal's assignment of the given role, or removes
// an assignment directly by ID. Removing a role the principal does not hold
// is a warning, not an error.
func (e *Engine) Unassign(ctx context.Context, req Request) Result {
	e.stats.Requests.Inc()
	res := e.unassignOne(ctx, req)
	e.count(res)
	return res
}

func (e *Engine) unassignOne(ctx context.Context, req Request) Result {
	result := Result{
		Principal: req.PrincipalRef,
		Role:      req.RoleDisplayName,
	}

	if err := ctx.Err(); err != nil {
		return e.cancelled(result)
	}

	if req.AssignmentId != "" {
		// Removal by ID skips name resolution entirely; the platform enforces
		// who may be mutated.
		result.Action = ActionRemove
		out := e.executor.execute(ctx, &plan{
			action:  ActionRemove,
			current: &CurrentAssignment{Id: req.AssignmentId},
		})
		result.Status = out.status
		result.Detail = out.detail
		if out.errorCode != "" {
			result.ErrorCode = string(out.errorCode)
		}
		return result
	}

	principal, err := e.resolver.ResolvePrincipal(ctx, req.PrincipalRef)
	if err != nil {
		return result.failed(CodeOf(err), err.Error())
	}
	if err := guardLocallyManaged(principal); err != nil {
		return result.failed(CodeOf(err), err.Error())
	}

	role, err := e.resolver.ResolveRole(ctx, req.RoleDisplayName)
	if err != nil {
		return result.failed(CodeOf(err), err.Error())
	}

	state, err := ReadAssignmentState(ctx, e.gateway, principal.Id)
	if err != nil {
		return result.failed(CodeOf(err), err.Error())
	}
	current := state[role.Grn]

	action := ClassifyRemoval(current)
	result.Action = action
	if action == ActionNone {
		result.Status = StatusWarning
		result.Detail = "principal does not hold this role"
		return result
	}
	result.Scope = current.Scope.Grns()

	if err := ctx.Err(); err != nil {
		return e.cancelled(result)
	}

	out := e.executor.execute(ctx, &plan{
		principalId: principal.Id,
		role:        role,
		action:      ActionRemove,
		current:     current,
	})
	result.Status = out.status
	result.Detail = out.detail
	if out.errorCode != "" {
		result.ErrorCode = string(out.errorCode)
	}
	return result
}

// resolveAndValidate runs the resolution and validation stages shared by the
// assignment flow, returning ok=false with a terminal Result on any failure.
func (e *Engine) resolveAndValidate(ctx context.Context, req Request, result Result) (*principals.Principal, *ResolvedRole, ScopeDescriptor, Result, bool) {
	principal, err := e.resolver.ResolvePrincipal(ctx, req.PrincipalRef)
	if err != nil {
		return nil, nil, ScopeDescriptor{}, result.failed(CodeOf(err), err.Error()), false
	}
	if err := guardLocallyManaged(principal); err != nil {
		return nil, nil, ScopeDescriptor{}, result.failed(CodeOf(err), err.Error()), false
	}

	role, err := e.resolver.ResolveRole(ctx, req.RoleDisplayName)
	if err != nil {
		return nil, nil, ScopeDescriptor{}, result.failed(CodeOf(err), err.Error()), false
	}

	grns, err := e.resolver.ResolveScopeGroups(ctx, req.ScopeGroupNames)
	if err != nil {
		return nil, nil, ScopeDescriptor{}, result.failed(CodeOf(err), err.Error()), false
	}
	desired := ScopeOf(grns...)
	result.Scope = desired.Grns()

	if err := ValidateCompatibility(role, desired); err != nil {
		return nil, nil, ScopeDescriptor{}, result.failed(CodeOf(err), err.Error()), false
	}

	return principal, role, desired, result, true
}

// guardLocallyManaged rejects mutation of principals provisioned by an
// external identity source before any platform call is attempted.
func guardLocallyManaged(p *principals.Principal) error {
	if p.AuthSource != "" && p.AuthSource != principals.AuthSourceLocal {
		return newError(CodeUnauthorized,
			"principal %q is managed by %s and cannot be modified here", p.Reference(), p.AuthSource)
	}
	return nil
}

// ReconcileBatch reconciles each request in turn, isolating failures per
// item: one request's failure never halts the rest, and the returned slice
// maps 1:1, in order, onto the input. With WithParallelism, requests for
// distinct principals may proceed concurrently; a principal's own requests
// stay ordered.
func (e *Engine) ReconcileBatch(ctx context.Context, reqs []Request) []Result {
	runId, err := uuid.GenerateUUID()
	if err != nil {
		runId = "unknown"
	}
	logger := e.logger.With("run_id", runId)
	logger.Info("starting reconciliation batch", "requests", len(reqs), "parallelism", e.parallelism)

	results := make([]Result, len(reqs))

	if e.parallelism <= 1 || len(reqs) < 2 {
		for i, req := range reqs {
			results[i] = e.Reconcile(ctx, req)
		}
		logger.Info("batch finished", "mutating_calls", e.stats.MutatingCalls.Load(), "failures", e.stats.Failures.Load())
		return results
	}

	// Shard by principal: one goroutine owns all of a principal's requests,
	// in input order, so no two mutating calls for the same (principal, role)
	// pair can overlap. Result positions are fixed up front, keeping output
	// 1:1 with input no matter the completion order.
	byPrincipal := make(map[string][]int)
	var order []string
	for i, req := range reqs {
		if _, ok := byPrincipal[req.PrincipalRef]; !ok {
			order = append(order, req.PrincipalRef)
		}
		byPrincipal[req.PrincipalRef] = append(byPrincipal[req.PrincipalRef], i)
	}

	g := new(errgroup.Group)
	g.SetLimit(e.parallelism)
	for _, ref := range order {
		indexes := byPrincipal[ref]
		g.Go(func() error {
			for _, i := range indexes {
				results[i] = e.Reconcile(ctx, reqs[i])
			}
			// Failures live in the results; nothing here should cancel the
			// other workers.
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch finished", "mutating_calls", e.stats.MutatingCalls.Load(), "failures", e.stats.Failures.Load())
	return results
}

func (e *Engine) cancelled(result Result) Result {
	result.Status = StatusCancelled
	result.ErrorCode = string(CodeCancelled)
	result.Detail = "run cancelled before the request was applied"
	return result
}

func (e *Engine) count(res Result) {
	switch res.Status {
	case StatusComplete:
		e.stats.Completed.Inc()
	case StatusWarning:
		e.stats.Warnings.Inc()
	case StatusFailed:
		e.stats.Failures.Inc()
	case StatusCancelled:
		e.stats.Cancellations.Inc()
	}
}

// SummaryError flattens the failed results of a batch into one error, or nil
// when nothing failed. Warnings are not failures.
func SummaryError(results []Result) error {
	var merr *multierror.Error
	for _, res := range results {
		if res.Status == StatusFailed {
			merr = multierror.Append(merr, newError(Code(res.ErrorCode), "%s / %s: %s", res.Principal, res.Role, res.Detail))
		}
	}
	return merr.ErrorOrNil()
}
