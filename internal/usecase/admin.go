package usecase

import (
	"context"
	"log"

	"anchord/internal/domain"
)

// AdminService gates every mutating registry operation behind the single
// stored owner. Caller identity is always an explicit parameter, never
// ambient state.
type AdminService struct {
	owner    OwnerStore
	registry RegistryStore
	zk       ZKConfigStore
	audit    AuditSink
}

func NewAdminService(owner OwnerStore, registry RegistryStore, zk ZKConfigStore, audit AuditSink) *AdminService {
	return &AdminService{owner: owner, registry: registry, zk: zk, audit: audit}
}

// Initialize sets the owner exactly once.
func (s *AdminService) Initialize(ctx context.Context, caller domain.Address) error {
	if caller.IsZero() {
		return domain.ErrInvalidOwner
	}
	current, err := s.owner.Owner(ctx)
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return domain.ErrAlreadyInitialized
	}
	return s.owner.SetOwner(ctx, caller)
}

func (s *AdminService) AuthorizeNode(ctx context.Context, caller domain.Address, hwID domain.HardwareID) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.registry.SetNodeAuthorization(ctx, hwID, true); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventNodeAuthorized, map[string]any{"hw_id": hwID.Hex()})
	return nil
}

func (s *AdminService) RevokeNode(ctx context.Context, caller domain.Address, hwID domain.HardwareID) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.registry.SetNodeAuthorization(ctx, hwID, false); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventNodeRevoked, map[string]any{"hw_id": hwID.Hex()})
	return nil
}

func (s *AdminService) ApproveFirmware(ctx context.Context, caller domain.Address, fwHash domain.FirmwareHash) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.registry.SetFirmwareApproval(ctx, fwHash, true); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventFirmwareApproved, map[string]any{"fw_hash": fwHash.Hex()})
	return nil
}

func (s *AdminService) RevokeFirmware(ctx context.Context, caller domain.Address, fwHash domain.FirmwareHash) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.registry.SetFirmwareApproval(ctx, fwHash, false); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventFirmwareRevoked, map[string]any{"fw_hash": fwHash.Hex()})
	return nil
}

func (s *AdminService) TransferOwnership(ctx context.Context, caller, newOwner domain.Address) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return domain.ErrInvalidOwner
	}
	if err := s.owner.SetOwner(ctx, newOwner); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventOwnershipTransferred, map[string]any{
		"from": caller.Hex(),
		"to":   newOwner.Hex(),
	})
	return nil
}

func (s *AdminService) SetZKVerifier(ctx context.Context, caller domain.Address, ref string) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.zk.SetZKVerifier(ctx, ref); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventZkVerifierSet, map[string]any{"verifier": ref})
	return nil
}

func (s *AdminService) SetZKMode(ctx context.Context, caller domain.Address, enforce bool) error {
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.zk.SetZKEnforce(ctx, enforce); err != nil {
		return err
	}
	s.record(ctx, domain.AuditEventZkModeSet, map[string]any{"enforce": enforce})
	return nil
}

func (s *AdminService) Owner(ctx context.Context) (domain.Address, error) {
	return s.owner.Owner(ctx)
}

func (s *AdminService) requireOwner(ctx context.Context, caller domain.Address) error {
	owner, err := s.owner.Owner(ctx)
	if err != nil {
		return err
	}
	if owner.IsZero() || caller != owner {
		return domain.ErrUnauthorizedCaller
	}
	return nil
}

// record appends a best-effort audit trail entry. Admin mutations have
// already committed at this point, so a sink failure is logged rather than
// surfaced to the caller.
func (s *AdminService) record(ctx context.Context, eventType string, payload map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, domain.AuditEvent{EventType: eventType, Payload: payload}); err != nil {
		log.Printf("audit append %s failed: %v", eventType, err)
	}
}
