package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/tnb/internal/models"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(DefaultPolicy())
	require.NoError(t, err)
	return m
}

var allStates = []models.WorkflowState{
	models.StateDraft, models.StateValidated, models.StatePublished, models.StateArchived,
}

func TestCanTransition_DefaultTable(t *testing.T) {
	m := newTestMachine(t)

	allowed := map[[3]string]bool{
		{"draft", "validated", "admin"}:      true,
		{"draft", "validated", "technician"}: true,
		{"validated", "published", "admin"}:  true,
		{"published", "archived", "admin"}:   true,
		{"validated", "draft", "admin"}:      true,
		{"published", "draft", "admin"}:      true,
		{"archived", "draft", "admin"}:       true,
	}

	for _, from := range allStates {
		for _, to := range allStates {
			for _, role := range []models.Role{models.RoleAdmin, models.RoleTechnician, models.RoleViewer} {
				key := [3]string{string(from), string(to), string(role)}
				assert.Equal(t, allowed[key], m.CanTransition(from, to, role), "%s -> %s as %s", from, to, role)
			}
		}
	}
}

func TestCanTransition_RevertIsAdminOnly(t *testing.T) {
	m := newTestMachine(t)

	assert.False(t, m.CanTransition(models.StatePublished, models.StateDraft, models.RoleTechnician))
	assert.True(t, m.CanTransition(models.StatePublished, models.StateDraft, models.RoleAdmin))
}

func TestCanTransition_RejectsUnknownInputs(t *testing.T) {
	m := newTestMachine(t)

	assert.False(t, m.CanTransition(models.StateDraft, models.StateValidated, "auditor"))
	assert.False(t, m.CanTransition("pending", models.StateValidated, models.RoleAdmin))
	assert.False(t, m.CanTransition(models.StateDraft, "closed", models.RoleAdmin))
}

func TestCanMutate_DefaultTable(t *testing.T) {
	m := newTestMachine(t)

	tests := []struct {
		state models.WorkflowState
		role  models.Role
		op    models.Operation
		want  bool
	}{
		{models.StateDraft, models.RoleTechnician, models.OpUpdate, true},
		{models.StateDraft, models.RoleAdmin, models.OpDelete, true},
		{models.StateDraft, models.RoleTechnician, models.OpCompute, true},
		{models.StateDraft, models.RoleViewer, models.OpCreate, false},
		{models.StateValidated, models.RoleAdmin, models.OpUpdate, true},
		{models.StateValidated, models.RoleAdmin, models.OpCompute, true},
		{models.StateValidated, models.RoleTechnician, models.OpUpdate, false},
		{models.StatePublished, models.RoleAdmin, models.OpUpdate, false},
		{models.StatePublished, models.RoleAdmin, models.OpCompute, false},
		{models.StateArchived, models.RoleAdmin, models.OpDelete, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.CanMutate(tt.state, tt.role, tt.op), "%s %s while %s", tt.role, tt.op, tt.state)
	}
}

func TestCanMutate_ReadAlwaysAllowed(t *testing.T) {
	m := newTestMachine(t)

	for _, state := range allStates {
		for _, role := range []models.Role{models.RoleAdmin, models.RoleTechnician, models.RoleViewer} {
			assert.True(t, m.CanMutate(state, role, models.OpRead))
		}
	}
	assert.False(t, m.CanMutate(models.StateDraft, "anonymous", models.OpRead))
}

func TestTransition_ReturnsForbiddenError(t *testing.T) {
	m := newTestMachine(t)

	state, err := m.Transition(models.StateValidated, models.StatePublished, models.RoleTechnician)

	assert.Equal(t, models.StateValidated, state)
	require.ErrorIs(t, err, ErrForbiddenTransition)
	var ferr *ForbiddenTransitionError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, models.StateValidated, ferr.State)
	assert.Equal(t, models.RoleTechnician, ferr.Role)
	assert.Contains(t, err.Error(), "transition to published")

	state, err = m.Transition(models.StateValidated, models.StatePublished, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatePublished, state)
}

func TestAuthorize(t *testing.T) {
	m := newTestMachine(t)

	assert.NoError(t, m.Authorize(models.StateDraft, models.RoleTechnician, models.OpCompute))

	err := m.Authorize(models.StatePublished, models.RoleAdmin, models.OpUpdate)
	require.ErrorIs(t, err, ErrForbiddenTransition)
	assert.Contains(t, err.Error(), "update")
	assert.Contains(t, err.Error(), "published")
	assert.Contains(t, err.Error(), "admin")
}

func TestAvailableTransitions(t *testing.T) {
	m := newTestMachine(t)

	assert.Equal(t, []models.WorkflowState{models.StateValidated},
		m.AvailableTransitions(models.StateDraft, models.RoleTechnician))
	assert.Equal(t, []models.WorkflowState{models.StateDraft, models.StatePublished},
		m.AvailableTransitions(models.StateValidated, models.RoleAdmin))
	assert.Equal(t, []models.WorkflowState{models.StateDraft},
		m.AvailableTransitions(models.StateArchived, models.RoleAdmin))
	assert.Empty(t, m.AvailableTransitions(models.StatePublished, models.RoleViewer))
}

func TestNewMachine_CustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.Roles = append(policy.Roles, "inspector")
	policy.Transitions = append(policy.Transitions, TransitionRule{
		From: models.StateDraft, To: models.StateValidated, Roles: []models.Role{"inspector"},
	})

	m, err := NewMachine(policy)

	require.NoError(t, err)
	assert.True(t, m.CanTransition(models.StateDraft, models.StateValidated, "inspector"))
	assert.False(t, m.CanMutate(models.StateDraft, "inspector", models.OpUpdate))
}

func TestNewMachine_RejectsInvalidPolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{name: "backward transition", mutate: func(p *Policy) {
			p.Transitions = append(p.Transitions, TransitionRule{
				From: models.StatePublished, To: models.StateValidated, Roles: []models.Role{models.RoleAdmin},
			})
		}},
		{name: "unknown state", mutate: func(p *Policy) {
			p.Mutations = append(p.Mutations, MutationRule{State: "limbo", Roles: []models.Role{models.RoleAdmin}})
		}},
		{name: "undeclared role", mutate: func(p *Policy) {
			p.RevertRoles = []models.Role{"root"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tt.mutate(&policy)

			m, err := NewMachine(policy)

			assert.Nil(t, m)
			assert.Error(t, err)
		})
	}
}
