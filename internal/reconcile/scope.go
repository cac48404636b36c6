package reconcile

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/strutil"
)

// ScopeDescriptor is the resolved scope of an assignment: either the entire
// workspace or a non-empty set of scope group GRNs. The zero value is the
// entire workspace. The GRN set is held sorted and de-duplicated so that
// equality is order-independent.
type ScopeDescriptor struct {
	grns []string
}

// EntireWorkspace returns the default, workspace-wide scope.
func EntireWorkspace() ScopeDescriptor {
	return ScopeDescriptor{}
}

// ScopeOf builds a descriptor from scope group GRNs, de-duplicating and
// sorting them. No GRNs yields the entire-workspace scope.
func ScopeOf(grns ...string) ScopeDescriptor {
	if len(grns) == 0 {
		return ScopeDescriptor{}
	}
	deduped := strutil.RemoveDuplicates(grns, false)
	sort.Strings(deduped)
	return ScopeDescriptor{grns: deduped}
}

// IsEntireWorkspace reports whether the scope is the workspace-wide default.
func (s ScopeDescriptor) IsEntireWorkspace() bool {
	return len(s.grns) == 0
}

// Grns returns a copy of the scope group GRNs, sorted. Empty for the
// entire-workspace scope.
func (s ScopeDescriptor) Grns() []string {
	if len(s.grns) == 0 {
		return nil
	}
	out := make([]string, len(s.grns))
	copy(out, s.grns)
	return out
}

// Equal reports whether two descriptors denote the same scope. Comparison of
// scope group sets is order-independent; the entire-workspace scope only
// matches itself.
func (s ScopeDescriptor) Equal(o ScopeDescriptor) bool {
	if len(s.grns) != len(o.grns) {
		return false
	}
	for i := range s.grns {
		if s.grns[i] != o.grns[i] {
			return false
		}
	}
	return true
}

func (s ScopeDescriptor) String() string {
	if s.IsEntireWorkspace() {
		return "entire workspace"
	}
	return strings.Join(s.grns, ", ")
}
