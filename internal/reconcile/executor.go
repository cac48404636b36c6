package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/hashicorp/go-hclog"
	"go.uber.org/atomic"
)

// Stats counts what a run actually did. Counters are atomic so the parallel
// batch mode can share them without locking.
type Stats struct {
	Requests      atomic.Int64
	MutatingCalls atomic.Int64
	Completed     atomic.Int64
	Warnings      atomic.Int64
	Failures      atomic.Int64
	Cancellations atomic.Int64
}

// plan is a fully resolved, validated, classified request, ready to execute.
type plan struct {
	principalId string
	role        *ResolvedRole
	desired     ScopeDescriptor
	action      Action
	current     *CurrentAssignment
}

// outcome is what execution contributes to the request's Result.
type outcome struct {
	status    Status
	detail    string
	errorCode Code
}

// Executor performs the single platform call a classified action requires.
// It never issues more than one mutating call per plan; ActionNone issues
// none at all.
type Executor struct {
	gateway DirectoryGateway
	logger  hclog.Logger
	stats   *Stats
}

// NewExecutor returns an Executor over the given gateway.
func NewExecutor(gateway DirectoryGateway, logger hclog.Logger, stats *Stats) *Executor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if stats == nil {
		stats = new(Stats)
	}
	return &Executor{
		gateway: gateway,
		logger:  logger,
		stats:   stats,
	}
}

func (e *Executor) execute(ctx context.Context, p *plan) outcome {
	switch p.action {
	case ActionNone:
		return outcome{
			status: StatusWarning,
			detail: "already in the desired state",
		}

	case ActionCreate:
		e.stats.MutatingCalls.Inc()
		created, err := e.gateway.CreateAssignment(ctx, p.principalId, p.role.Grn, p.desired.Grns())
		if err != nil {
			if errors.Is(err, api.ErrConflict) {
				// Someone else created the same binding between our read and
				// our write. The desired state holds, so this is benign.
				e.logger.Debug("create raced an identical assignment", "role", p.role.Grn, "principal", p.principalId)
				return outcome{
					status:    StatusWarning,
					detail:    "assignment already exists",
					errorCode: CodeConflict,
				}
			}
			return e.platformFailure(err, "creating assignment")
		}
		return outcome{
			status: StatusComplete,
			detail: fmt.Sprintf("assignment %s created", created.Id),
		}

	case ActionModify:
		e.stats.MutatingCalls.Inc()
		updated, err := e.gateway.SetAssignmentScope(ctx, p.current.Id, p.current.Version, p.desired.Grns())
		if err != nil {
			return e.platformFailure(err, "updating assignment scope")
		}
		return outcome{
			status: StatusComplete,
			detail: fmt.Sprintf("assignment %s scope set to %s", updated.Id, p.desired),
		}

	case ActionRemove:
		e.stats.MutatingCalls.Inc()
		existed, err := e.gateway.DeleteAssignment(ctx, p.current.Id)
		if err != nil {
			return e.platformFailure(err, "deleting assignment")
		}
		if !existed {
			return outcome{
				status: StatusWarning,
				detail: "assignment was already gone",
			}
		}
		return outcome{
			status: StatusComplete,
			detail: fmt.Sprintf("assignment %s removed", p.current.Id),
		}

	default:
		return outcome{
			status:    StatusFailed,
			detail:    fmt.Sprintf("unknown action %q", p.action),
			errorCode: CodeTransientLookup,
		}
	}
}

// platformFailure surfaces a mutating-call failure with the platform's error
// code and HTTP status preserved verbatim.
func (e *Executor) platformFailure(err error, doing string) outcome {
	if apiErr := api.AsServerError(err); apiErr != nil {
		e.logger.Error("platform rejected mutating call", "doing", doing, "status", apiErr.Status, "code", apiErr.Code)
		return outcome{
			status:    StatusFailed,
			detail:    fmt.Sprintf("error %s: %s (HTTP %d, %s)", doing, apiErr.Message, apiErr.Status, apiErr.Code),
			errorCode: CodeTransientLookup,
		}
	}
	e.logger.Error("transport failure during mutating call", "doing", doing, "error", err)
	return outcome{
		status:    StatusFailed,
		detail:    fmt.Sprintf("error %s: %v", doing, err),
		errorCode: CodeTransientLookup,
	}
}
