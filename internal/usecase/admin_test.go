package usecase

import (
	"context"
	"errors"
	"testing"

	"anchord/internal/domain"
	"anchord/internal/infra/statemem"
)

func addr(b byte) domain.Address {
	var a domain.Address
	a[19] = b
	return a
}

func newAdminUnderTest() (*AdminService, *statemem.Store) {
	store := statemem.New()
	return NewAdminService(store, store, store, store), store
}

func TestInitialize_SetsOwnerOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAdminUnderTest()
	owner := addr(1)

	if err := svc.Initialize(ctx, owner); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	got, err := svc.Owner(ctx)
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if got != owner {
		t.Fatalf("owner: got %s want %s", got.Hex(), owner.Hex())
	}

	if err := svc.Initialize(ctx, addr(2)); !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Fatalf("second initialize: got %v, want ErrAlreadyInitialized", err)
	}
	got, _ = svc.Owner(ctx)
	if got != owner {
		t.Fatalf("owner changed by failed initialize: %s", got.Hex())
	}
}

func TestInitialize_RejectsZeroCaller(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAdminUnderTest()
	if err := svc.Initialize(ctx, domain.ZeroAddress); !errors.Is(err, domain.ErrInvalidOwner) {
		t.Fatalf("got %v, want ErrInvalidOwner", err)
	}
}

func TestAdmin_RejectsCallsBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAdminUnderTest()
	var hwID domain.HardwareID
	if err := svc.AuthorizeNode(ctx, addr(1), hwID); !errors.Is(err, domain.ErrUnauthorizedCaller) {
		t.Fatalf("got %v, want ErrUnauthorizedCaller before initialize", err)
	}
}

func TestAdmin_NonOwnerNeverMutates(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminUnderTest()
	if err := svc.Initialize(ctx, addr(1)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	intruder := addr(9)
	var hwID domain.HardwareID
	hwID[0] = 0xEE
	var fwHash domain.FirmwareHash
	fwHash[0] = 0xFF

	calls := []struct {
		name string
		call func() error
	}{
		{"AuthorizeNode", func() error { return svc.AuthorizeNode(ctx, intruder, hwID) }},
		{"RevokeNode", func() error { return svc.RevokeNode(ctx, intruder, hwID) }},
		{"ApproveFirmware", func() error { return svc.ApproveFirmware(ctx, intruder, fwHash) }},
		{"RevokeFirmware", func() error { return svc.RevokeFirmware(ctx, intruder, fwHash) }},
		{"TransferOwnership", func() error { return svc.TransferOwnership(ctx, intruder, intruder) }},
		{"SetZKVerifier", func() error { return svc.SetZKVerifier(ctx, intruder, "groth16:vk.bin") }},
		{"SetZKMode", func() error { return svc.SetZKMode(ctx, intruder, true) }},
	}
	for _, c := range calls {
		if err := c.call(); !errors.Is(err, domain.ErrUnauthorizedCaller) {
			t.Fatalf("%s: got %v, want ErrUnauthorizedCaller", c.name, err)
		}
	}

	if ok, _ := store.IsNodeAuthorized(ctx, hwID); ok {
		t.Fatal("node authorized by non-owner")
	}
	if ok, _ := store.IsFirmwareApproved(ctx, fwHash); ok {
		t.Fatal("firmware approved by non-owner")
	}
	owner, _ := store.Owner(ctx)
	if owner != addr(1) {
		t.Fatalf("owner changed by non-owner: %s", owner.Hex())
	}
	cfg, _ := store.ZKConfig(ctx)
	if cfg.VerifierRef != "" || cfg.Enforce {
		t.Fatalf("zk config changed by non-owner: %+v", cfg)
	}
	if events := store.Events(); len(events) != 0 {
		t.Fatalf("audit events recorded for rejected calls: %d", len(events))
	}
}

func TestAdmin_OwnerManagesRegistry(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminUnderTest()
	owner := addr(1)
	if err := svc.Initialize(ctx, owner); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	var hwID domain.HardwareID
	hwID[0] = 0x01
	var fwHash domain.FirmwareHash
	fwHash[0] = 0x02

	if err := svc.AuthorizeNode(ctx, owner, hwID); err != nil {
		t.Fatalf("authorize node: %v", err)
	}
	if ok, _ := store.IsNodeAuthorized(ctx, hwID); !ok {
		t.Fatal("node not authorized")
	}
	if err := svc.ApproveFirmware(ctx, owner, fwHash); err != nil {
		t.Fatalf("approve firmware: %v", err)
	}
	if ok, _ := store.IsFirmwareApproved(ctx, fwHash); !ok {
		t.Fatal("firmware not approved")
	}

	if err := svc.RevokeNode(ctx, owner, hwID); err != nil {
		t.Fatalf("revoke node: %v", err)
	}
	if ok, _ := store.IsNodeAuthorized(ctx, hwID); ok {
		t.Fatal("node still authorized after revoke")
	}
	if err := svc.RevokeFirmware(ctx, owner, fwHash); err != nil {
		t.Fatalf("revoke firmware: %v", err)
	}
	if ok, _ := store.IsFirmwareApproved(ctx, fwHash); ok {
		t.Fatal("firmware still approved after revoke")
	}

	events := store.Events()
	wantTypes := []string{
		domain.AuditEventNodeAuthorized,
		domain.AuditEventFirmwareApproved,
		domain.AuditEventNodeRevoked,
		domain.AuditEventFirmwareRevoked,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("audit events: got %d want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].EventType != want {
			t.Fatalf("event %d: got %s want %s", i, events[i].EventType, want)
		}
	}
}

func TestAdmin_IdempotentGrantsAndRevokes(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminUnderTest()
	owner := addr(1)
	if err := svc.Initialize(ctx, owner); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	var hwID domain.HardwareID

	if err := svc.AuthorizeNode(ctx, owner, hwID); err != nil {
		t.Fatalf("first authorize: %v", err)
	}
	if err := svc.AuthorizeNode(ctx, owner, hwID); err != nil {
		t.Fatalf("repeated authorize: %v", err)
	}
	if err := svc.RevokeNode(ctx, owner, hwID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.RevokeNode(ctx, owner, hwID); err != nil {
		t.Fatalf("revoke of unauthorized node: %v", err)
	}
	if ok, _ := store.IsNodeAuthorized(ctx, hwID); ok {
		t.Fatal("node authorized after final revoke")
	}
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAdminUnderTest()
	first, second := addr(1), addr(2)
	if err := svc.Initialize(ctx, first); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := svc.TransferOwnership(ctx, first, domain.ZeroAddress); !errors.Is(err, domain.ErrInvalidOwner) {
		t.Fatalf("zero new owner: got %v, want ErrInvalidOwner", err)
	}
	if err := svc.TransferOwnership(ctx, first, second); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	var hwID domain.HardwareID
	if err := svc.AuthorizeNode(ctx, first, hwID); !errors.Is(err, domain.ErrUnauthorizedCaller) {
		t.Fatalf("old owner still authorized: %v", err)
	}
	if err := svc.AuthorizeNode(ctx, second, hwID); err != nil {
		t.Fatalf("new owner rejected: %v", err)
	}
}

func TestAdmin_ZKConfiguration(t *testing.T) {
	ctx := context.Background()
	svc, store := newAdminUnderTest()
	owner := addr(1)
	if err := svc.Initialize(ctx, owner); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := svc.SetZKVerifier(ctx, owner, "groth16:vk.bin"); err != nil {
		t.Fatalf("set verifier: %v", err)
	}
	if err := svc.SetZKMode(ctx, owner, true); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	cfg, _ := store.ZKConfig(ctx)
	if cfg.VerifierRef != "groth16:vk.bin" || !cfg.Enforce {
		t.Fatalf("zk config: %+v", cfg)
	}

	// The owner may swap the verifier or drop back to audit mode later.
	if err := svc.SetZKVerifier(ctx, owner, "https://prover.internal"); err != nil {
		t.Fatalf("replace verifier: %v", err)
	}
	if err := svc.SetZKMode(ctx, owner, false); err != nil {
		t.Fatalf("disable enforce: %v", err)
	}
	cfg, _ = store.ZKConfig(ctx)
	if cfg.VerifierRef != "https://prover.internal" || cfg.Enforce {
		t.Fatalf("zk config after update: %+v", cfg)
	}
}
