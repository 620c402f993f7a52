package usecase

import (
	"context"

	"anchord/internal/domain"
	cryptoinfra "anchord/internal/infra/crypto"
)

// ReceiptVerifier runs the staged verification pipeline.
//
// The v1 stage order is frozen: hardware allow-list, firmware allow-list,
// counter monotonicity, digest reconstruction, then the counter advance as
// the one and only state effect. The v2 path keeps those stages intact
// (with the chain-bound digest layout) and appends the proof gate; it never
// reorders or removes a v1 stage.
type ReceiptVerifier struct {
	registry RegistryStore
	counters CounterStore
	zk       ZKConfigStore
	gateway  *ZKGateway
	audit    AuditSink
	chainID  uint64
}

func NewReceiptVerifier(registry RegistryStore, counters CounterStore, zk ZKConfigStore, gateway *ZKGateway, audit AuditSink, chainID uint64) *ReceiptVerifier {
	return &ReceiptVerifier{
		registry: registry,
		counters: counters,
		zk:       zk,
		gateway:  gateway,
		audit:    audit,
		chainID:  chainID,
	}
}

func (v *ReceiptVerifier) ChainID() uint64 {
	return v.chainID
}

// VerifyV1 is the legacy verification path. Its stage logic, byte layout and
// failure behavior are frozen; deployed firmware depends on them.
func (v *ReceiptVerifier) VerifyV1(ctx context.Context, receipt domain.Receipt) error {
	if err := v.runStages(ctx, receipt, cryptoinfra.ReceiptDigestV1(receipt.HardwareID, receipt.FirmwareHash, receipt.ExecutionHash, receipt.Counter)); err != nil {
		return err
	}
	return v.counters.Advance(ctx, receipt.HardwareID, receipt.Counter)
}

// VerifyV2 is the extended path: the four v1 stages against the chain-bound
// v2 layout, then the proof gate. On success the counter advances and the
// proof-gated verification count increments — in audit mode this happens
// even when the proof failed, which is the deliberate monitoring-phase
// trade-off: devices can spend counters on unproven executions until
// enforcement is switched on.
func (v *ReceiptVerifier) VerifyV2(ctx context.Context, receipt domain.Receipt) error {
	if err := v.runStages(ctx, receipt, cryptoinfra.ReceiptDigestV2(v.chainID, receipt.HardwareID, receipt.FirmwareHash, receipt.ExecutionHash, receipt.Counter)); err != nil {
		return err
	}

	cfg, err := v.zk.ZKConfig(ctx)
	if err != nil {
		return err
	}
	proofValid, err := v.gateway.Check(ctx, cfg, receipt.ExecutionHash, receipt.Proof)
	if err != nil {
		return err
	}
	if !proofValid {
		// Audit mode only: record before mutating so a sink failure
		// leaves the call without effect.
		event := domain.AuditEvent{
			EventType: domain.AuditEventZkProofAuditFailed,
			Payload: map[string]any{
				"hw_id":     receipt.HardwareID.Hex(),
				"exec_hash": receipt.ExecutionHash.Hex(),
				"counter":   receipt.Counter,
			},
		}
		if err := v.audit.Append(ctx, event); err != nil {
			return err
		}
	}

	if err := v.counters.Advance(ctx, receipt.HardwareID, receipt.Counter); err != nil {
		return err
	}
	_, err = v.zk.IncrementZKVerifyCount(ctx)
	return err
}

func (v *ReceiptVerifier) runStages(ctx context.Context, receipt domain.Receipt, reconstructed domain.Digest) error {
	authorized, err := v.registry.IsNodeAuthorized(ctx, receipt.HardwareID)
	if err != nil {
		return err
	}
	if !authorized {
		return domain.ErrUnauthorizedHardware
	}

	approved, err := v.registry.IsFirmwareApproved(ctx, receipt.FirmwareHash)
	if err != nil {
		return err
	}
	if !approved {
		return domain.ErrFirmwareNotApproved
	}

	last, err := v.counters.Current(ctx, receipt.HardwareID)
	if err != nil {
		return err
	}
	if receipt.Counter <= last {
		return domain.ErrReplayDetected
	}

	if reconstructed != receipt.ClaimedDigest {
		return domain.ErrDigestMismatch
	}
	return nil
}
