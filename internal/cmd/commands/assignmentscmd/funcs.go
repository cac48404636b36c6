package assignmentscmd

import (
	"fmt"
	"strings"

	"github.com/gatehouse-project/gatehouse/internal/cmd/base"
	"github.com/gatehouse-project/gatehouse/internal/reconcile"
)

func printResultsTable(results []reconcile.Result) string {
	if len(results) == 0 {
		return "No requests given"
	}

	rows := []string{"Principal | Role | Action | Status | Detail"}
	for _, res := range results {
		principal := res.Principal
		if principal == "" {
			principal = "(by id)"
		}
		rows = append(rows, fmt.Sprintf("%s | %s | %s | %s | %s",
			principal, res.Role, res.Action, res.Status, res.Detail))
	}

	var counts []string
	byStatus := map[reconcile.Status]int{}
	for _, res := range results {
		byStatus[res.Status]++
	}
	for _, status := range []reconcile.Status{
		reconcile.StatusComplete,
		reconcile.StatusWarning,
		reconcile.StatusFailed,
		reconcile.StatusCancelled,
	} {
		if n := byStatus[status]; n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, status))
		}
	}

	return base.ColumnOutput(rows) + "\n\n" + strings.Join(counts, ", ")
}
