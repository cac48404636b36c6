package reconcile

// ValidateCompatibility checks that the requested scope can be bound to the
// resolved role. A workspace-level role only accepts the entire-workspace
// scope; a scopable role accepts either. This runs before the differ so that
// an incompatible request can never be mistaken for a no-op or reach the
// platform as a doomed mutating call.
func ValidateCompatibility(role *ResolvedRole, scope ScopeDescriptor) error {
	if role.WorkspaceLevel && !scope.IsEntireWorkspace() {
		return newError(CodeIncompatibleScope,
			"role %q is workspace-level and cannot be restricted to scope groups (%s)",
			role.DisplayName, scope)
	}
	return nil
}
