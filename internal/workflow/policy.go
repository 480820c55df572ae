package workflow

import (
	"fmt"

	"github.com/stwalsh4118/tnb/internal/models"
)

// TransitionRule allows Roles to move a record from From to To.
type TransitionRule struct {
	From  models.WorkflowState
	To    models.WorkflowState
	Roles []models.Role
}

// MutationRule allows Roles to perform Operations while a record is in State.
type MutationRule struct {
	State      models.WorkflowState
	Operations []models.Operation
	Roles      []models.Role
}

// Policy is the single declarative permission table of the workflow.
type Policy struct {
	Transitions []TransitionRule
	Mutations   []MutationRule
	// RevertRoles may send a record from any other state back to draft.
	RevertRoles []models.Role
	// Roles are the authenticated roles; each may always read.
	Roles []models.Role
}

// DefaultPolicy returns the reference permission table.
func DefaultPolicy() Policy {
	admin := []models.Role{models.RoleAdmin}
	editors := []models.Role{models.RoleAdmin, models.RoleTechnician}
	writes := []models.Operation{models.OpCreate, models.OpUpdate, models.OpDelete, models.OpCompute}

	return Policy{
		Roles: []models.Role{models.RoleAdmin, models.RoleTechnician, models.RoleViewer},
		Transitions: []TransitionRule{
			{From: models.StateDraft, To: models.StateValidated, Roles: editors},
			{From: models.StateValidated, To: models.StatePublished, Roles: admin},
			{From: models.StatePublished, To: models.StateArchived, Roles: admin},
		},
		Mutations: []MutationRule{
			{State: models.StateDraft, Operations: writes, Roles: editors},
			{State: models.StateValidated, Operations: writes, Roles: admin},
		},
		RevertRoles: admin,
	}
}

// Validate checks that every rule names known states and that no rule
// moves a record backwards outside the revert path.
func (p Policy) Validate() error {
	known := make(map[models.Role]struct{}, len(p.Roles))
	for _, role := range p.Roles {
		known[role] = struct{}{}
	}
	checkRoles := func(where string, roles []models.Role) error {
		for _, role := range roles {
			if _, ok := known[role]; !ok {
				return fmt.Errorf("%s: role %q is not declared", where, role)
			}
		}
		return nil
	}

	for i, rule := range p.Transitions {
		where := fmt.Sprintf("transition %d", i)
		if !rule.From.Valid() || !rule.To.Valid() {
			return fmt.Errorf("%s: unknown state %q -> %q", where, rule.From, rule.To)
		}
		if rank(rule.To) <= rank(rule.From) {
			return fmt.Errorf("%s: %s -> %s is not a forward transition", where, rule.From, rule.To)
		}
		if err := checkRoles(where, rule.Roles); err != nil {
			return err
		}
	}
	for i, rule := range p.Mutations {
		where := fmt.Sprintf("mutation %d", i)
		if !rule.State.Valid() {
			return fmt.Errorf("%s: unknown state %q", where, rule.State)
		}
		if err := checkRoles(where, rule.Roles); err != nil {
			return err
		}
	}
	return checkRoles("revert", p.RevertRoles)
}

func rank(s models.WorkflowState) int {
	switch s {
	case models.StateDraft:
		return 0
	case models.StateValidated:
		return 1
	case models.StatePublished:
		return 2
	case models.StateArchived:
		return 3
	}
	return -1
}
