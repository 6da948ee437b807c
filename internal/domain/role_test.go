package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleEmployee.Valid())
	assert.True(t, RoleTechnician.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("MANAGER").Valid())
	assert.False(t, Role("").Valid())
}

func TestCapabilitiesOf(t *testing.T) {
	tests := []struct {
		role   Role
		create bool
		read   ReadScope
		update UpdateScope
	}{
		{RoleEmployee, true, ReadScopeOwn, UpdateScopeNone},
		{RoleTechnician, false, ReadScopeTeams, UpdateScopeSelfAssigned},
		{RoleAdmin, false, ReadScopeAll, UpdateScopeAll},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			caps, ok := CapabilitiesOf(tt.role)
			assert.True(t, ok)
			assert.Equal(t, tt.create, caps.CanCreate)
			assert.Equal(t, tt.read, caps.ReadScope)
			assert.Equal(t, tt.update, caps.UpdateScope)
		})
	}

	_, ok := CapabilitiesOf(Role("GUEST"))
	assert.False(t, ok)
}

func TestMaintenanceRequest_AssignedTo(t *testing.T) {
	empty := ""
	tech := "tech-1"

	assert.False(t, (&MaintenanceRequest{}).IsAssigned())
	assert.False(t, (&MaintenanceRequest{AssignedToID: &empty}).IsAssigned())

	held := &MaintenanceRequest{AssignedToID: &tech}
	assert.True(t, held.IsAssigned())
	assert.True(t, held.AssignedTo("tech-1"))
	assert.False(t, held.AssignedTo("tech-2"))
}
