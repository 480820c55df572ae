package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/tnb/internal/models"
)

// MockParcelRepository is a mock implementation of ParcelRepository for testing
type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) FindByID(ctx context.Context, id int64) (*models.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	parcel, ok := args.Get(0).(*models.Parcel)
	if !ok {
		return nil, args.Error(1)
	}
	return parcel, args.Error(1)
}

func (m *MockParcelRepository) UpdateState(ctx context.Context, id int64, from, to models.WorkflowState, version int64) (*models.Parcel, error) {
	args := m.Called(ctx, id, from, to, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

// MockTariffRepository is a mock implementation of TariffRepository for testing
type MockTariffRepository struct {
	mock.Mock
}

func (m *MockTariffRepository) FindByZoneAndYear(ctx context.Context, zone string, year int) ([]models.Tariff, error) {
	args := m.Called(ctx, zone, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tariff), args.Error(1)
}

// MockShareRepository is a mock implementation of ShareRepository for testing
type MockShareRepository struct {
	mock.Mock
}

func (m *MockShareRepository) FindByParcel(ctx context.Context, parcelID int64) ([]models.OwnershipShare, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OwnershipShare), args.Error(1)
}

// MockNoticeRepository is a mock implementation of NoticeRepository for testing
type MockNoticeRepository struct {
	mock.Mock
}

func (m *MockNoticeRepository) Save(ctx context.Context, notice *models.FiscalNotice, parcelVersion int64) error {
	args := m.Called(ctx, notice, parcelVersion)
	return args.Error(0)
}
