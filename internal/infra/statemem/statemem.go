// Package statemem is the in-memory state store. It backs tests and the
// no-db mode of the daemon; replay protection then lasts only for the
// process lifetime, so production deployments must run against postgres.
package statemem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"anchord/internal/domain"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	owner           domain.Address
	authorizedNodes map[domain.HardwareID]bool
	approvedFW      map[domain.FirmwareHash]bool
	counters        map[domain.HardwareID]uint64
	zk              domain.ZKConfig
	events          []domain.AuditEvent

	clock func() time.Time
}

func New() *Store {
	return &Store{
		authorizedNodes: make(map[domain.HardwareID]bool),
		approvedFW:      make(map[domain.FirmwareHash]bool),
		counters:        make(map[domain.HardwareID]uint64),
		clock:           time.Now,
	}
}

func NewWithClock(clock func() time.Time) *Store {
	s := New()
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *Store) SetNodeAuthorization(_ context.Context, hwID domain.HardwareID, authorized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizedNodes[hwID] = authorized
	return nil
}

func (s *Store) IsNodeAuthorized(_ context.Context, hwID domain.HardwareID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorizedNodes[hwID], nil
}

func (s *Store) SetFirmwareApproval(_ context.Context, fwHash domain.FirmwareHash, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvedFW[fwHash] = approved
	return nil
}

func (s *Store) IsFirmwareApproved(_ context.Context, fwHash domain.FirmwareHash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvedFW[fwHash], nil
}

func (s *Store) Current(_ context.Context, hwID domain.HardwareID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[hwID], nil
}

func (s *Store) Advance(_ context.Context, hwID domain.HardwareID, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value <= s.counters[hwID] {
		return domain.ErrReplayDetected
	}
	s.counters[hwID] = value
	return nil
}

func (s *Store) Owner(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, nil
}

func (s *Store) SetOwner(_ context.Context, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner
	return nil
}

func (s *Store) ZKConfig(_ context.Context) (domain.ZKConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zk, nil
}

func (s *Store) SetZKVerifier(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zk.VerifierRef = ref
	return nil
}

func (s *Store) SetZKEnforce(_ context.Context, enforce bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zk.Enforce = enforce
	return nil
}

func (s *Store) IncrementZKVerifyCount(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zk.VerifyCount++
	return s.zk.VerifyCount, nil
}

func (s *Store) Append(_ context.Context, event domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(payloadJSON)
	event.PayloadHash = hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.clock().UTC()
	}
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of the appended audit events, oldest first.
func (s *Store) Events() []domain.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}
