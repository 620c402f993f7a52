package usecase

import (
	"context"

	"anchord/internal/domain"
)

// RegistryStore holds the hardware and firmware allow-lists. Unknown keys
// read as false: absence means not authorized.
type RegistryStore interface {
	SetNodeAuthorization(ctx context.Context, hwID domain.HardwareID, authorized bool) error
	IsNodeAuthorized(ctx context.Context, hwID domain.HardwareID) (bool, error)
	SetFirmwareApproval(ctx context.Context, fwHash domain.FirmwareHash, approved bool) error
	IsFirmwareApproved(ctx context.Context, fwHash domain.FirmwareHash) (bool, error)
}

// CounterStore holds the per-device replay counters. Current returns 0 for
// an unknown device. Advance stores value only when it is strictly greater
// than the stored counter and fails with domain.ErrReplayDetected otherwise;
// the check and the store are a single atomic step.
type CounterStore interface {
	Current(ctx context.Context, hwID domain.HardwareID) (uint64, error)
	Advance(ctx context.Context, hwID domain.HardwareID, value uint64) error
}

// OwnerStore holds the single owner address. Owner returns the zero address
// before initialization.
type OwnerStore interface {
	Owner(ctx context.Context) (domain.Address, error)
	SetOwner(ctx context.Context, owner domain.Address) error
}

// ZKConfigStore holds the proof-gate configuration and the monotonically
// increasing count of proof-gated verifications.
type ZKConfigStore interface {
	ZKConfig(ctx context.Context) (domain.ZKConfig, error)
	SetZKVerifier(ctx context.Context, ref string) error
	SetZKEnforce(ctx context.Context, enforce bool) error
	IncrementZKVerifyCount(ctx context.Context) (uint64, error)
}

// AuditSink records operational events. Appends made by the verification
// pipeline happen before any state mutation so a sink failure leaves no
// partial state.
type AuditSink interface {
	Append(ctx context.Context, event domain.AuditEvent) error
}

// ProofVerifier is the external zero-knowledge verification capability.
// A false result means the proof did not verify; an error means the
// capability itself could not be exercised.
type ProofVerifier interface {
	Check(ctx context.Context, publicInput [32]byte, proof []byte) (bool, error)
}

// VerifierResolver turns an owner-configured verifier reference into a
// ProofVerifier capability.
type VerifierResolver interface {
	Resolve(ref string) (ProofVerifier, error)
}
