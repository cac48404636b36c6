// Package grn implements parsing and formatting of Gatehouse Resource Names,
// the canonical identifiers the platform uses in place of display names.
//
// A GRN has the form
//
//	grn:<service>:<workspace>:<kind>/<id>
//
// for example grn:iam:ws_x1y2z3:role/builtin.operator or
// grn:directory:ws_x1y2z3:scope-group/sg_9f8e7d.
package grn

import (
	"fmt"
	"strings"
)

const prefix = "grn"

// Resource kinds.
const (
	KindRole       = "role"
	KindScopeGroup = "scope-group"
	KindUser       = "user"
	KindGroup      = "group"
	KindWorkspace  = "workspace"
)

// BuiltinRolePrefix marks platform-defined roles. The resolver prefers these
// when several services reuse a display name.
const BuiltinRolePrefix = "builtin."

// GRN is a parsed Gatehouse Resource Name.
type GRN struct {
	Service   string
	Workspace string
	Kind      string
	Id        string
}

// Parse parses s into a GRN, validating its overall shape. It does not check
// that the named resource exists.
func Parse(s string) (GRN, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 || parts[0] != prefix {
		return GRN{}, fmt.Errorf("%q is not a valid GRN: want grn:<service>:<workspace>:<kind>/<id>", s)
	}

	kind, id, found := strings.Cut(parts[3], "/")
	if !found {
		return GRN{}, fmt.Errorf("%q is not a valid GRN: missing <kind>/<id> segment", s)
	}

	g := GRN{
		Service:   parts[1],
		Workspace: parts[2],
		Kind:      kind,
		Id:        id,
	}
	if err := g.Validate(); err != nil {
		return GRN{}, err
	}
	return g, nil
}

// String formats the GRN in its canonical wire form.
func (g GRN) String() string {
	return fmt.Sprintf("%s:%s:%s:%s/%s", prefix, g.Service, g.Workspace, g.Kind, g.Id)
}

// Validate checks that all segments are present and the kind is known.
func (g GRN) Validate() error {
	switch {
	case g.Service == "":
		return fmt.Errorf("grn is missing a service segment")
	case g.Workspace == "":
		return fmt.Errorf("grn is missing a workspace segment")
	case g.Id == "":
		return fmt.Errorf("grn is missing a resource id segment")
	}
	switch g.Kind {
	case KindRole, KindScopeGroup, KindUser, KindGroup, KindWorkspace:
	default:
		return fmt.Errorf("grn has unknown resource kind %q", g.Kind)
	}
	return nil
}

// IsBuiltinRole reports whether the GRN names a platform-defined role.
func (g GRN) IsBuiltinRole() bool {
	return g.Kind == KindRole && strings.HasPrefix(g.Id, BuiltinRolePrefix)
}

// IsBuiltinRoleGrn reports whether the raw GRN string names a platform-defined
// role. Malformed input reports false.
func IsBuiltinRoleGrn(s string) bool {
	g, err := Parse(s)
	if err != nil {
		return false
	}
	return g.IsBuiltinRole()
}
