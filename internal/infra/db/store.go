package db

import (
	"errors"
	"fmt"

	"anchord/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("database unavailable")

type Store struct {
	DB *gorm.DB

	Registry *RegistryRepository
	Counters *CounterRepository
	State    *AnchorStateRepository
	Audit    *AuditEventRepository
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewStoreWithDB(gdb), nil
}

func NewStoreWithDB(gdb *gorm.DB) *Store {
	return &Store{
		DB:       gdb,
		Registry: NewRegistryRepository(gdb),
		Counters: NewCounterRepository(gdb),
		State:    NewAnchorStateRepository(gdb),
		Audit:    NewAuditEventRepository(gdb),
	}
}

func (s *Store) Migrate() error {
	if s.DB == nil {
		return errDBUnavailable
	}
	return s.DB.AutoMigrate(
		&NodeAuthorizationModel{},
		&FirmwareApprovalModel{},
		&CounterModel{},
		&AnchorStateModel{},
		&AuditEventModel{},
	)
}
