package db

import "time"

type NodeAuthorizationModel struct {
	HWID       string    `gorm:"primaryKey;size:64"`
	Authorized bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (NodeAuthorizationModel) TableName() string { return "node_authorizations" }

type FirmwareApprovalModel struct {
	FWHash    string    `gorm:"primaryKey;size:64"`
	Approved  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (FirmwareApprovalModel) TableName() string { return "firmware_approvals" }

type CounterModel struct {
	HWID      string    `gorm:"primaryKey;size:64"`
	Counter   uint64    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (CounterModel) TableName() string { return "counters" }

// AnchorStateModel is a single-row table (id = 1) holding the owner address
// and the proof-gate configuration.
type AnchorStateModel struct {
	ID            int64     `gorm:"primaryKey"`
	Owner         string    `gorm:"size:40;not null;default:''"`
	ZKVerifierRef string    `gorm:"not null;default:''"`
	ZKEnforce     bool      `gorm:"not null;default:false"`
	ZKVerifyCount uint64    `gorm:"not null;default:0"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (AnchorStateModel) TableName() string { return "anchor_state" }

type AuditEventModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	EventType   string    `gorm:"index;not null"`
	PayloadJSON []byte    `gorm:"type:jsonb;not null"`
	PayloadHash string    `gorm:"size:64;not null"`
	CreatedAt   time.Time `gorm:"index;not null"`
}

func (AuditEventModel) TableName() string { return "audit_events" }
