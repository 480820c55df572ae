package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/tnb/internal/database"
	"github.com/stwalsh4118/tnb/internal/models"
)

// TariffRepository defines the interface for tariff data access operations.
type TariffRepository interface {
	// FindByZoneAndYear returns every tariff row for the zone and year,
	// inactive ones included. Returns an empty slice if none exist.
	FindByZoneAndYear(ctx context.Context, zone string, year int) ([]models.Tariff, error)
}

type tariffRepository struct {
	db *database.Database
}

// NewTariffRepository creates a new instance of TariffRepository.
func NewTariffRepository(db *database.Database) TariffRepository {
	return &tariffRepository{db: db}
}

func (r *tariffRepository) FindByZoneAndYear(ctx context.Context, zone string, year int) ([]models.Tariff, error) {
	query := `
		SELECT id, zone_code, fiscal_year, unit_rate::text, active
		FROM tariffs
		WHERE zone_code = $1 AND fiscal_year = $2
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, zone, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query tariffs (zone=%s, year=%d): %w", zone, year, err)
	}
	defer rows.Close()

	tariffs := []models.Tariff{}
	for rows.Next() {
		var (
			tariff models.Tariff
			rate   string
		)
		if err := rows.Scan(&tariff.ID, &tariff.ZoneCode, &tariff.FiscalYear, &rate, &tariff.Active); err != nil {
			return nil, fmt.Errorf("failed to scan tariff row: %w", err)
		}
		if tariff.UnitRate, err = parseDecimal("unit_rate", rate); err != nil {
			return nil, err
		}
		tariffs = append(tariffs, tariff)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tariff rows: %w", err)
	}

	return tariffs, nil
}
