package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stwalsh4118/tnb/internal/fiscal"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/metrics"
	"github.com/stwalsh4118/tnb/internal/models"
	"github.com/stwalsh4118/tnb/internal/repository"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

// Operation names used in logs and metrics.
const (
	operationPreview = "preview"
	operationIssue   = "issue"
)

// FiscalService defines the business operations on parcel fiscal results.
type FiscalService interface {
	// Preview computes and apportions the TNB of a parcel for year without
	// persisting anything. A zero asOf means today.
	// Returns ErrParcelNotFound if the parcel does not exist.
	Preview(ctx context.Context, parcelID int64, year int, asOf time.Time, caller models.Caller) (*models.FiscalResult, error)

	// Issue computes, apportions and persists a fiscal notice. The caller
	// must be allowed to compute in the parcel's current state, and the
	// parcel must not change between loading and saving.
	Issue(ctx context.Context, parcelID int64, year int, asOf time.Time, caller models.Caller) (*models.FiscalNotice, error)
}

// FiscalRepositories groups the data sources a FiscalService reads and writes.
type FiscalRepositories struct {
	Parcels repository.ParcelRepository
	Tariffs repository.TariffRepository
	Shares  repository.ShareRepository
	Notices repository.NoticeRepository
}

type fiscalService struct {
	repos       FiscalRepositories
	calculator  *fiscal.Calculator
	apportioner *fiscal.Apportioner
	machine     *workflow.Machine
	metrics     *metrics.Metrics
	log         *logger.Logger
	now         func() time.Time
}

// NewFiscalService creates a new instance of FiscalService.
// m may be nil.
func NewFiscalService(
	repos FiscalRepositories,
	calculator *fiscal.Calculator,
	apportioner *fiscal.Apportioner,
	machine *workflow.Machine,
	m *metrics.Metrics,
	log *logger.Logger,
) FiscalService {
	return &fiscalService{
		repos:       repos,
		calculator:  calculator,
		apportioner: apportioner,
		machine:     machine,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

func (s *fiscalService) Preview(ctx context.Context, parcelID int64, year int, asOf time.Time, caller models.Caller) (*models.FiscalResult, error) {
	start := time.Now()
	_, result, err := s.compute(ctx, operationPreview, models.OpRead, parcelID, year, asOf, caller)
	s.metrics.ObserveComputeLatency(operationPreview, time.Since(start))
	s.metrics.IncrementOutcome(operationPreview, outcome(result, err))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *fiscalService) Issue(ctx context.Context, parcelID int64, year int, asOf time.Time, caller models.Caller) (*models.FiscalNotice, error) {
	start := time.Now()
	notice, err := s.issue(ctx, parcelID, year, asOf, caller)
	s.metrics.ObserveComputeLatency(operationIssue, time.Since(start))

	var result models.FiscalResult
	if notice != nil {
		result = notice.Result
	}
	s.metrics.IncrementOutcome(operationIssue, outcome(result, err))
	return notice, err
}

func (s *fiscalService) issue(ctx context.Context, parcelID int64, year int, asOf time.Time, caller models.Caller) (*models.FiscalNotice, error) {
	parcel, result, err := s.compute(ctx, operationIssue, models.OpCompute, parcelID, year, asOf, caller)
	if err != nil {
		return nil, err
	}

	notice := &models.FiscalNotice{
		ID:       uuid.New(),
		IssuedAt: s.now().UTC(),
		IssuedBy: caller.ID,
		Result:   result,
	}

	log := s.log.WithParcel(parcelID, year)
	if err := s.repos.Notices.Save(ctx, notice, parcel.Version); err != nil {
		log.Error("Failed to save fiscal notice", err, logger.Fields{
			"notice_id": notice.ID.String(),
			"version":   parcel.Version,
		})
		return nil, fmt.Errorf("failed to save fiscal notice: %w", err)
	}

	log.Info("Fiscal notice issued", logger.Fields{
		"notice_id":  notice.ID.String(),
		"net_amount": result.NetAmount.StringFixed(fiscal.MoneyPlaces),
		"owners":     len(result.Owners),
		"issued_by":  caller.ID,
	})

	return notice, nil
}

// compute loads the parcel, checks op against its workflow state, then
// loads tariffs and shares concurrently and runs the fiscal core on that
// snapshot.
func (s *fiscalService) compute(
	ctx context.Context,
	operation string,
	op models.Operation,
	parcelID int64,
	year int,
	asOf time.Time,
	caller models.Caller,
) (*models.Parcel, models.FiscalResult, error) {
	log := s.log.WithParcel(parcelID, year)

	parcel, err := s.repos.Parcels.FindByID(ctx, parcelID)
	if err != nil {
		log.Error("Failed to load parcel", err, nil)
		return nil, models.FiscalResult{}, fmt.Errorf("failed to load parcel: %w", err)
	}
	if parcel == nil {
		log.Debug("Parcel not found", nil)
		return nil, models.FiscalResult{}, ErrParcelNotFound
	}

	if err := s.machine.Authorize(parcel.State, caller.Role, op); err != nil {
		log.Warn("Fiscal operation rejected by workflow", logger.Fields{
			"operation": operation,
			"state":     string(parcel.State),
			"role":      string(caller.Role),
			"user_id":   caller.ID,
		})
		return nil, models.FiscalResult{}, err
	}

	if asOf.IsZero() {
		asOf = s.now()
	}

	var (
		tariffs []models.Tariff
		shares  []models.OwnershipShare
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tariffs, err = s.repos.Tariffs.FindByZoneAndYear(gctx, parcel.ZoneCode, year)
		if err != nil {
			return fmt.Errorf("failed to load tariffs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		shares, err = s.repos.Shares.FindByParcel(gctx, parcel.ID)
		if err != nil {
			return fmt.Errorf("failed to load ownership shares: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("Failed to load fiscal inputs", err, nil)
		return nil, models.FiscalResult{}, err
	}

	result, err := s.calculator.Compute(fiscal.NewTariffTable(tariffs), *parcel, year, asOf)
	if err != nil {
		log.Warn("Fiscal computation failed", logger.Fields{
			"operation": operation,
			"zone":      parcel.ZoneCode,
			"error":     err.Error(),
		})
		return nil, models.FiscalResult{}, err
	}

	split, err := s.apportioner.Apportion(parcel.ID, result.NetAmount, fiscal.ActiveShares(shares, result.AsOf))
	if err != nil {
		log.Warn("Apportionment failed", logger.Fields{
			"operation": operation,
			"shares":    len(shares),
			"error":     err.Error(),
		})
		return nil, models.FiscalResult{}, err
	}
	s.metrics.AddAdjustedCents(split.AdjustedCents)
	result = result.WithOwners(split.Owners)

	log.Debug("Fiscal result computed", logger.Fields{
		"operation":      operation,
		"net_amount":     result.NetAmount.StringFixed(fiscal.MoneyPlaces),
		"exempt":         result.ExemptionApplied,
		"not_applicable": result.NotApplicable,
		"adjusted_cents": split.AdjustedCents,
	})

	return parcel, result, nil
}

func outcome(result models.FiscalResult, err error) string {
	switch {
	case err != nil:
		return errorOutcome(err)
	case result.NotApplicable:
		return OutcomeNotApplicable
	case result.ExemptionApplied:
		return OutcomeExempt
	default:
		return OutcomeComputed
	}
}
