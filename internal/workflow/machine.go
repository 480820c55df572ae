package workflow

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/tnb/internal/models"
)

// ErrForbiddenTransition is the sentinel behind every ForbiddenTransitionError.
var ErrForbiddenTransition = errors.New("forbidden transition")

// ForbiddenTransitionError reports a transition or mutation the caller's
// role may not perform in the record's current state.
type ForbiddenTransitionError struct {
	State  models.WorkflowState
	Action string
	Role   models.Role
}

func (e *ForbiddenTransitionError) Error() string {
	return fmt.Sprintf("%s: role %q may not %s while %s", ErrForbiddenTransition, e.Role, e.Action, e.State)
}

func (e *ForbiddenTransitionError) Unwrap() error { return ErrForbiddenTransition }

type transitionKey struct {
	from models.WorkflowState
	to   models.WorkflowState
	role models.Role
}

type mutationKey struct {
	state models.WorkflowState
	op    models.Operation
	role  models.Role
}

// Machine decides workflow transitions and state-gated mutations.
// It holds no record state; the current state is always passed in.
type Machine struct {
	roles       map[models.Role]struct{}
	transitions map[transitionKey]struct{}
	mutations   map[mutationKey]struct{}
	revert      map[models.Role]struct{}
}

// NewMachine compiles policy into a decision table.
func NewMachine(policy Policy) (*Machine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow policy: %w", err)
	}

	m := &Machine{
		roles:       make(map[models.Role]struct{}),
		transitions: make(map[transitionKey]struct{}),
		mutations:   make(map[mutationKey]struct{}),
		revert:      make(map[models.Role]struct{}),
	}
	for _, role := range policy.Roles {
		m.roles[role] = struct{}{}
	}
	for _, rule := range policy.Transitions {
		for _, role := range rule.Roles {
			m.transitions[transitionKey{from: rule.From, to: rule.To, role: role}] = struct{}{}
		}
	}
	for _, rule := range policy.Mutations {
		for _, op := range rule.Operations {
			for _, role := range rule.Roles {
				m.mutations[mutationKey{state: rule.State, op: op, role: role}] = struct{}{}
			}
		}
	}
	for _, role := range policy.RevertRoles {
		m.revert[role] = struct{}{}
	}
	return m, nil
}

// CanTransition reports whether role may move a record from current to target.
// Moving back to draft from any other state is the revert path.
func (m *Machine) CanTransition(current, target models.WorkflowState, role models.Role) bool {
	if !current.Valid() || !target.Valid() || !m.known(role) {
		return false
	}
	if target == models.StateDraft {
		if current == models.StateDraft {
			return false
		}
		_, ok := m.revert[role]
		return ok
	}
	_, ok := m.transitions[transitionKey{from: current, to: target, role: role}]
	return ok
}

// CanMutate reports whether role may perform op while a record is in state.
// Reads are open to every known role.
func (m *Machine) CanMutate(state models.WorkflowState, role models.Role, op models.Operation) bool {
	if !state.Valid() || !m.known(role) {
		return false
	}
	if op == models.OpRead {
		return true
	}
	_, ok := m.mutations[mutationKey{state: state, op: op, role: role}]
	return ok
}

// Transition returns target when the transition is allowed, and a
// ForbiddenTransitionError otherwise.
func (m *Machine) Transition(current, target models.WorkflowState, role models.Role) (models.WorkflowState, error) {
	if !m.CanTransition(current, target, role) {
		return current, &ForbiddenTransitionError{
			State:  current,
			Action: "transition to " + string(target),
			Role:   role,
		}
	}
	return target, nil
}

// Authorize returns a ForbiddenTransitionError when role may not perform op in state.
func (m *Machine) Authorize(state models.WorkflowState, role models.Role, op models.Operation) error {
	if !m.CanMutate(state, role, op) {
		return &ForbiddenTransitionError{State: state, Action: string(op), Role: role}
	}
	return nil
}

// AvailableTransitions lists the states role may move a record to from
// current, in workflow order.
func (m *Machine) AvailableTransitions(current models.WorkflowState, role models.Role) []models.WorkflowState {
	targets := []models.WorkflowState{}
	for _, target := range []models.WorkflowState{
		models.StateDraft, models.StateValidated, models.StatePublished, models.StateArchived,
	} {
		if m.CanTransition(current, target, role) {
			targets = append(targets, target)
		}
	}
	return targets
}

func (m *Machine) known(role models.Role) bool {
	_, ok := m.roles[role]
	return ok
}
