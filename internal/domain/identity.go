package domain

// Role is the access level of a resolved identity.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleEditor    Role = "editor"
	RoleAdmin     Role = "admin"
)

// String returns the role name.
func (r Role) String() string { return string(r) }

// ParseRole maps a stored role name back to a Role.
// Unknown names resolve to RoleAnonymous.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleEditor:
		return RoleEditor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleAnonymous
	}
}

// Action is an operation gated by the permission policy.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Identity is the resolved principal of a request. The zero value is
// anonymous.
type Identity struct {
	Username string
	Role     Role
}

// Anonymous is the identity of requests without a valid session token.
var Anonymous = Identity{Role: RoleAnonymous}

// permissions is the single source of truth for gating every handler.
// Roles missing from the table get the anonymous row.
var permissions = map[Role]map[Action]bool{
	RoleAnonymous: {
		ActionView: true,
	},
	RoleEditor: {
		ActionView:   true,
		ActionCreate: true,
		ActionEdit:   true,
	},
	RoleAdmin: {
		ActionView:   true,
		ActionCreate: true,
		ActionEdit:   true,
		ActionDelete: true,
	},
}

// Can reports whether the identity is allowed to perform the action.
// Unknown roles are treated as anonymous.
func (i Identity) Can(action Action) bool {
	row, ok := permissions[i.Role]
	if !ok {
		row = permissions[RoleAnonymous]
	}
	return row[action]
}

// Per-action helpers for template use, where Can's typed argument is
// awkward to spell.

func (i Identity) CanCreate() bool { return i.Can(ActionCreate) }
func (i Identity) CanEdit() bool   { return i.Can(ActionEdit) }
func (i Identity) CanDelete() bool { return i.Can(ActionDelete) }

// IsAnonymous reports whether the identity carries no authenticated user.
func (i Identity) IsAnonymous() bool {
	return i.Role == RoleAnonymous || i.Role == ""
}
