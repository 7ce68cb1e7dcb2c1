package domain

// Role names as stored in the roles collection.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleEntrepreneur Role = "emprendedor"
	RoleCustomer     Role = "cliente"
	RoleUser         Role = "usuario"
)

// DefaultRole is assigned to every self-registered account.
const DefaultRole = RoleCustomer

// BaseRoles are provisioned at startup when missing.
var BaseRoles = []RoleRecord{
	{ID: 1, Name: RoleAdmin, Description: "Platform administrator"},
	{ID: 2, Name: RoleEntrepreneur, Description: "Owner of tourism businesses"},
	{ID: 3, Name: RoleCustomer, Description: "Registered customer"},
	{ID: 4, Name: RoleUser, Description: "Basic user"},
}

// RoleSet is the set of role names granted to an identity.
type RoleSet []Role

func (s RoleSet) Has(r Role) bool {
	for _, have := range s {
		if have == r {
			return true
		}
	}
	return false
}

// Intersects reports whether s shares at least one role with required.
func (s RoleSet) Intersects(required ...Role) bool {
	for _, r := range required {
		if s.Has(r) {
			return true
		}
	}
	return false
}

func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// RoleSetFromStrings converts raw role names (e.g. token claims) to a RoleSet.
func RoleSetFromStrings(names []string) RoleSet {
	out := make(RoleSet, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, Role(n))
		}
	}
	return out
}

// RoleRecord is a role row with its numeric identifier.
type RoleRecord struct {
	ID          int64  `json:"id"`
	Name        Role   `json:"name"`
	Description string `json:"description,omitempty"`
}

// Permission is a named capability that can be attached to roles.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// BasePermissions are provisioned at startup and granted to the admin role.
var BasePermissions = []Permission{
	{ID: 1, Name: "users.create", Description: "Create users"},
	{ID: 2, Name: "users.read", Description: "View users"},
	{ID: 3, Name: "users.update", Description: "Update users"},
	{ID: 4, Name: "users.delete", Description: "Delete users"},
	{ID: 5, Name: "roles.manage", Description: "Manage roles"},
	{ID: 6, Name: "permissions.manage", Description: "Manage permissions"},
	{ID: 7, Name: "emprendimientos.create", Description: "Create emprendimientos"},
	{ID: 8, Name: "emprendimientos.read", Description: "View emprendimientos"},
	{ID: 9, Name: "emprendimientos.update", Description: "Update emprendimientos"},
	{ID: 10, Name: "emprendimientos.delete", Description: "Delete emprendimientos"},
}
