package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/tnb/internal/database"
	"github.com/stwalsh4118/tnb/internal/models"
)

// NoticeRepository defines the interface for persisting fiscal notices.
type NoticeRepository interface {
	// Save stores the notice and its owner breakdown in one transaction.
	// The parcel row is locked and must still be at parcelVersion,
	// otherwise ErrParcelVersionConflict is returned and nothing is written.
	Save(ctx context.Context, notice *models.FiscalNotice, parcelVersion int64) error
}

type noticeRepository struct {
	db *database.Database
}

// NewNoticeRepository creates a new instance of NoticeRepository.
func NewNoticeRepository(db *database.Database) NoticeRepository {
	return &noticeRepository{db: db}
}

func (r *noticeRepository) Save(ctx context.Context, notice *models.FiscalNotice, parcelVersion int64) error {
	result := notice.Result

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var current int64
		err := tx.QueryRow(ctx, `SELECT version FROM parcels WHERE id = $1 FOR UPDATE`, result.ParcelID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: parcel %d no longer exists", ErrParcelVersionConflict, result.ParcelID)
			}
			return fmt.Errorf("failed to lock parcel %d: %w", result.ParcelID, err)
		}
		if current != parcelVersion {
			return fmt.Errorf("%w: parcel %d is at version %d, notice computed at %d",
				ErrParcelVersionConflict, result.ParcelID, current, parcelVersion)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO fiscal_notices (
				id, parcel_id, fiscal_year, as_of,
				taxable_surface, unit_tariff, gross_amount, exempted_amount, net_amount,
				exemption_applied, not_applicable, exemption_reason,
				issued_by, issued_at
			) VALUES (
				$1, $2, $3, $4,
				$5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric,
				$10, $11, $12,
				$13, $14
			)`,
			notice.ID, result.ParcelID, result.FiscalYear, result.AsOf,
			result.TaxableSurface.String(), result.UnitTariff.String(),
			result.GrossAmount.StringFixed(2), result.ExemptedAmount.StringFixed(2), result.NetAmount.StringFixed(2),
			result.ExemptionApplied, result.NotApplicable, result.Exemption.Reason,
			notice.IssuedBy, notice.IssuedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fiscal notice for parcel %d: %w", result.ParcelID, err)
		}

		if len(result.Owners) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, owner := range result.Owners {
			batch.Queue(`
				INSERT INTO fiscal_notice_owners (notice_id, owner_id, share, amount)
				VALUES ($1, $2, $3::numeric, $4::numeric)`,
				notice.ID, owner.OwnerID, owner.Share.String(), owner.Amount.StringFixed(2),
			)
		}

		br := tx.SendBatch(ctx, batch)
		for _, owner := range result.Owners {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert amount for owner %d: %w", owner.OwnerID, err)
			}
		}
		return br.Close()
	})
}
