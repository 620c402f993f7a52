package db

import (
	"context"
	"errors"
	"time"

	"anchord/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepository persists the per-device replay counters. Advance takes a
// row lock so the strict-increase check and the write are one atomic step
// even with concurrent submitters.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

func (r *CounterRepository) Current(ctx context.Context, hwID domain.HardwareID) (uint64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var model CounterModel
	err := r.db.WithContext(ctx).Where("hw_id = ?", hwID.Hex()).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return model.Counter, nil
}

func (r *CounterRepository) Advance(ctx context.Context, hwID domain.HardwareID, value uint64) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CounterModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("hw_id = ?", hwID.Hex()).
			First(&model).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if value == 0 {
				return domain.ErrReplayDetected
			}
			return tx.Create(&CounterModel{
				HWID:      hwID.Hex(),
				Counter:   value,
				UpdatedAt: time.Now().UTC(),
			}).Error
		case err != nil:
			return err
		}
		if value <= model.Counter {
			return domain.ErrReplayDetected
		}
		model.Counter = value
		model.UpdatedAt = time.Now().UTC()
		return tx.Save(&model).Error
	})
}
