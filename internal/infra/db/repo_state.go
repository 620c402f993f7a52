package db

import (
	"context"
	"errors"
	"time"

	"anchord/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const anchorStateRowID = 1

// AnchorStateRepository persists the owner address and the proof-gate
// configuration in a single row.
type AnchorStateRepository struct {
	db *gorm.DB
}

func NewAnchorStateRepository(db *gorm.DB) *AnchorStateRepository {
	return &AnchorStateRepository{db: db}
}

func (r *AnchorStateRepository) Owner(ctx context.Context) (domain.Address, error) {
	model, err := r.load(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	if model.Owner == "" {
		return domain.ZeroAddress, nil
	}
	return domain.ParseAddress(model.Owner)
}

func (r *AnchorStateRepository) SetOwner(ctx context.Context, owner domain.Address) error {
	return r.update(ctx, map[string]any{"owner": owner.Hex()})
}

func (r *AnchorStateRepository) ZKConfig(ctx context.Context) (domain.ZKConfig, error) {
	model, err := r.load(ctx)
	if err != nil {
		return domain.ZKConfig{}, err
	}
	return domain.ZKConfig{
		VerifierRef: model.ZKVerifierRef,
		Enforce:     model.ZKEnforce,
		VerifyCount: model.ZKVerifyCount,
	}, nil
}

func (r *AnchorStateRepository) SetZKVerifier(ctx context.Context, ref string) error {
	return r.update(ctx, map[string]any{"zk_verifier_ref": ref})
}

func (r *AnchorStateRepository) SetZKEnforce(ctx context.Context, enforce bool) error {
	return r.update(ctx, map[string]any{"zk_enforce": enforce})
}

func (r *AnchorStateRepository) IncrementZKVerifyCount(ctx context.Context) (uint64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var count uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := loadStateForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		model.ZKVerifyCount++
		model.UpdatedAt = time.Now().UTC()
		count = model.ZKVerifyCount
		return tx.Save(&model).Error
	})
	return count, err
}

func (r *AnchorStateRepository) load(ctx context.Context) (AnchorStateModel, error) {
	if r.db == nil {
		return AnchorStateModel{}, errDBUnavailable
	}
	var model AnchorStateModel
	err := r.db.WithContext(ctx).Where("id = ?", anchorStateRowID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AnchorStateModel{ID: anchorStateRowID}, nil
	}
	return model, err
}

func (r *AnchorStateRepository) update(ctx context.Context, fields map[string]any) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := loadStateForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		fields["updated_at"] = time.Now().UTC()
		return tx.Model(&model).Updates(fields).Error
	})
}

func loadStateForUpdate(ctx context.Context, tx *gorm.DB) (AnchorStateModel, error) {
	var model AnchorStateModel
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", anchorStateRowID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = AnchorStateModel{ID: anchorStateRowID, UpdatedAt: time.Now().UTC()}
		if err := tx.Create(&model).Error; err != nil {
			return AnchorStateModel{}, err
		}
		return model, nil
	}
	return model, err
}
