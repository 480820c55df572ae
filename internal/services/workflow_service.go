package services

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/metrics"
	"github.com/stwalsh4118/tnb/internal/models"
	"github.com/stwalsh4118/tnb/internal/repository"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

// WorkflowService defines the validation workflow operations on parcels.
type WorkflowService interface {
	// Transition moves a parcel to target if the caller's role allows it
	// from the parcel's current state. Returns the updated parcel.
	// Returns ErrParcelNotFound, a workflow.ForbiddenTransitionError, or
	// repository.ErrParcelVersionConflict when the parcel changed meanwhile.
	Transition(ctx context.Context, parcelID int64, target models.WorkflowState, caller models.Caller) (*models.Parcel, error)

	// Available lists the states the caller may move the parcel to.
	Available(ctx context.Context, parcelID int64, caller models.Caller) (*TransitionOptions, error)
}

// TransitionOptions is the current state of a parcel and the targets
// reachable by a caller.
type TransitionOptions struct {
	Current models.WorkflowState   `json:"current"`
	Targets []models.WorkflowState `json:"targets"`
	Version int64                  `json:"version"`
}

type workflowService struct {
	parcels repository.ParcelRepository
	machine *workflow.Machine
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewWorkflowService creates a new instance of WorkflowService.
// m may be nil.
func NewWorkflowService(parcels repository.ParcelRepository, machine *workflow.Machine, m *metrics.Metrics, log *logger.Logger) WorkflowService {
	return &workflowService{
		parcels: parcels,
		machine: machine,
		metrics: m,
		log:     log,
	}
}

func (s *workflowService) Transition(ctx context.Context, parcelID int64, target models.WorkflowState, caller models.Caller) (*models.Parcel, error) {
	log := s.log.WithParcel(parcelID, 0)

	parcel, err := s.load(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	fields := logger.Fields{
		"from":    string(parcel.State),
		"to":      string(target),
		"role":    string(caller.Role),
		"user_id": caller.ID,
	}

	if _, err := s.machine.Transition(parcel.State, target, caller.Role); err != nil {
		s.metrics.IncrementTransition(string(parcel.State), string(target), OutcomeForbidden)
		log.Warn("Workflow transition rejected", fields)
		return nil, err
	}

	updated, err := s.parcels.UpdateState(ctx, parcel.ID, parcel.State, target, parcel.Version)
	if err != nil {
		s.metrics.IncrementTransition(string(parcel.State), string(target), errorOutcome(err))
		log.Error("Failed to apply workflow transition", err, fields)
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}

	s.metrics.IncrementTransition(string(parcel.State), string(target), OutcomeAllowed)
	fields["version"] = updated.Version
	log.Info("Workflow transition applied", fields)

	return updated, nil
}

func (s *workflowService) Available(ctx context.Context, parcelID int64, caller models.Caller) (*TransitionOptions, error) {
	parcel, err := s.load(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Authorize(parcel.State, caller.Role, models.OpRead); err != nil {
		return nil, err
	}

	return &TransitionOptions{
		Current: parcel.State,
		Targets: s.machine.AvailableTransitions(parcel.State, caller.Role),
		Version: parcel.Version,
	}, nil
}

func (s *workflowService) load(ctx context.Context, parcelID int64) (*models.Parcel, error) {
	parcel, err := s.parcels.FindByID(ctx, parcelID)
	if err != nil {
		s.log.Error("Failed to load parcel", err, logger.Fields{"parcel_id": parcelID})
		return nil, fmt.Errorf("failed to load parcel: %w", err)
	}
	if parcel == nil {
		return nil, ErrParcelNotFound
	}
	return parcel, nil
}
