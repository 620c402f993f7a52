package db

import (
	"context"
	"errors"
	"time"

	"anchord/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistryRepository persists the hardware and firmware allow-lists.
// Revocation flips the flag in place; rows are never deleted, so the
// authorization history of an identity survives re-authorization.
type RegistryRepository struct {
	db *gorm.DB
}

func NewRegistryRepository(db *gorm.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

func (r *RegistryRepository) SetNodeAuthorization(ctx context.Context, hwID domain.HardwareID, authorized bool) error {
	if r.db == nil {
		return errDBUnavailable
	}
	now := time.Now().UTC()
	model := NodeAuthorizationModel{
		HWID:       hwID.Hex(),
		Authorized: authorized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hw_id"}},
			DoUpdates: clause.Assignments(map[string]any{"authorized": authorized, "updated_at": now}),
		}).
		Create(&model).Error
}

func (r *RegistryRepository) IsNodeAuthorized(ctx context.Context, hwID domain.HardwareID) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var model NodeAuthorizationModel
	err := r.db.WithContext(ctx).Where("hw_id = ?", hwID.Hex()).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return model.Authorized, nil
}

func (r *RegistryRepository) SetFirmwareApproval(ctx context.Context, fwHash domain.FirmwareHash, approved bool) error {
	if r.db == nil {
		return errDBUnavailable
	}
	now := time.Now().UTC()
	model := FirmwareApprovalModel{
		FWHash:    fwHash.Hex(),
		Approved:  approved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fw_hash"}},
			DoUpdates: clause.Assignments(map[string]any{"approved": approved, "updated_at": now}),
		}).
		Create(&model).Error
}

func (r *RegistryRepository) IsFirmwareApproved(ctx context.Context, fwHash domain.FirmwareHash) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var model FirmwareApprovalModel
	err := r.db.WithContext(ctx).Where("fw_hash = ?", fwHash.Hex()).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return model.Approved, nil
}
