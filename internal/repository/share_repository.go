package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/tnb/internal/database"
	"github.com/stwalsh4118/tnb/internal/models"
)

// ShareRepository defines the interface for ownership share data access.
type ShareRepository interface {
	// FindByParcel returns all ownership shares recorded for a parcel,
	// ordered by owner. Filtering by activity and validity date is left
	// to the caller.
	FindByParcel(ctx context.Context, parcelID int64) ([]models.OwnershipShare, error)
}

type shareRepository struct {
	db *database.Database
}

// NewShareRepository creates a new instance of ShareRepository.
func NewShareRepository(db *database.Database) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) FindByParcel(ctx context.Context, parcelID int64) ([]models.OwnershipShare, error) {
	query := `
		SELECT parcel_id, owner_id, share::text, start_date, end_date, active
		FROM ownership_shares
		WHERE parcel_id = $1
		ORDER BY owner_id, start_date NULLS FIRST
	`

	rows, err := r.db.Pool.Query(ctx, query, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ownership shares for parcel %d: %w", parcelID, err)
	}
	defer rows.Close()

	shares := []models.OwnershipShare{}
	for rows.Next() {
		var (
			share      models.OwnershipShare
			raw        string
			start, end *time.Time
		)
		if err := rows.Scan(&share.ParcelID, &share.OwnerID, &raw, &start, &end, &share.Active); err != nil {
			return nil, fmt.Errorf("failed to scan ownership share row: %w", err)
		}
		if share.Share, err = parseDecimal("share", raw); err != nil {
			return nil, err
		}
		share.StartDate = start
		share.EndDate = end
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ownership share rows: %w", err)
	}

	return shares, nil
}
