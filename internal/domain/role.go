package domain

// Role enumerates the roles an authenticated user may carry.
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleTechnician Role = "TECHNICIAN"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// ReadScope describes which maintenance requests a role may see.
type ReadScope string

const (
	ReadScopeOwn   ReadScope = "OWN"
	ReadScopeTeams ReadScope = "TEAMS"
	ReadScopeAll   ReadScope = "ALL"
)

// UpdateScope describes which maintenance request fields a role may change.
type UpdateScope string

const (
	UpdateScopeNone         UpdateScope = "NONE"
	UpdateScopeSelfAssigned UpdateScope = "SELF_ASSIGNED"
	UpdateScopeAll          UpdateScope = "ALL"
)

// Capabilities is the capability set granted to a role.
type Capabilities struct {
	CanCreate   bool
	ReadScope   ReadScope
	UpdateScope UpdateScope
}

var capabilities = map[Role]Capabilities{
	RoleEmployee:   {CanCreate: true, ReadScope: ReadScopeOwn, UpdateScope: UpdateScopeNone},
	RoleTechnician: {CanCreate: false, ReadScope: ReadScopeTeams, UpdateScope: UpdateScopeSelfAssigned},
	RoleAdmin:      {CanCreate: false, ReadScope: ReadScopeAll, UpdateScope: UpdateScopeAll},
}

// CapabilitiesOf returns the capability set for role. Unknown roles get the
// zero value and false.
func CapabilitiesOf(role Role) (Capabilities, bool) {
	c, ok := capabilities[role]
	return c, ok
}
