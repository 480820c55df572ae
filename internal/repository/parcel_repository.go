package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/tnb/internal/database"
	"github.com/stwalsh4118/tnb/internal/models"
)

// ErrParcelVersionConflict is returned when a write is based on a stale
// parcel version or an unexpected workflow state.
var ErrParcelVersionConflict = errors.New("parcel was modified concurrently")

// ParcelRepository defines the interface for parcel data access operations.
type ParcelRepository interface {
	// FindByID returns the parcel with the given ID.
	// Returns nil, nil if no parcel is found (not an error).
	FindByID(ctx context.Context, id int64) (*models.Parcel, error)

	// UpdateState moves a parcel from one workflow state to another,
	// provided it is still at the given state and version. The version is
	// incremented. Returns ErrParcelVersionConflict otherwise.
	UpdateState(ctx context.Context, id int64, from, to models.WorkflowState, version int64) (*models.Parcel, error)
}

const parcelColumns = `
	id,
	reference,
	taxable_surface::text,
	zone_code,
	legal_status,
	occupation_status,
	permit_date,
	state,
	version,
	created_at,
	updated_at`

// parcelRepository is the concrete implementation of ParcelRepository.
type parcelRepository struct {
	db *database.Database
}

// NewParcelRepository creates a new instance of ParcelRepository.
func NewParcelRepository(db *database.Database) ParcelRepository {
	return &parcelRepository{
		db: db,
	}
}

// FindByID loads a single parcel.
func (r *parcelRepository) FindByID(ctx context.Context, id int64) (*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE id = $1`

	parcel, err := scanParcel(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %d: %w", id, err)
	}
	return parcel, nil
}

// UpdateState performs a compare-and-set on the parcel's state and version.
func (r *parcelRepository) UpdateState(ctx context.Context, id int64, from, to models.WorkflowState, version int64) (*models.Parcel, error) {
	query := `
		UPDATE parcels
		SET state = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND state = $3 AND version = $4
		RETURNING ` + parcelColumns

	parcel, err := scanParcel(r.db.Pool.QueryRow(ctx, query, string(to), id, string(from), version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: parcel %d at version %d", ErrParcelVersionConflict, id, version)
		}
		return nil, fmt.Errorf("failed to update state of parcel %d: %w", id, err)
	}
	return parcel, nil
}

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var (
		parcel     models.Parcel
		surface    string
		legal      string
		occupation string
		state      string
		permitDate *time.Time
	)

	err := row.Scan(
		&parcel.ID,
		&parcel.Reference,
		&surface,
		&parcel.ZoneCode,
		&legal,
		&occupation,
		&permitDate,
		&state,
		&parcel.Version,
		&parcel.CreatedAt,
		&parcel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parcel.TaxableSurface, err = parseDecimal("taxable_surface", surface); err != nil {
		return nil, err
	}
	parcel.LegalStatus = models.LegalStatus(legal)
	parcel.OccupationStatus = models.OccupationStatus(occupation)
	parcel.State = models.WorkflowState(state)
	parcel.PermitDate = permitDate

	return &parcel, nil
}
