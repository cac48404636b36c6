package reconcile

// Classify compares the desired scope for a role against the principal's
// current assignment of that role (nil when none exists) and names the action
// required to converge them. It is pure: no I/O, no side effects.
func Classify(desired ScopeDescriptor, current *CurrentAssignment) Action {
	switch {
	case current == nil:
		return ActionCreate
	case current.Scope.Equal(desired):
		return ActionNone
	default:
		return ActionModify
	}
}

// ClassifyRemoval names the action for the removal flow: ActionRemove when an
// assignment exists, ActionNone when there is nothing to remove.
func ClassifyRemoval(current *CurrentAssignment) Action {
	if current == nil {
		return ActionNone
	}
	return ActionRemove
}
