package domain

import (
	"encoding/hex"
	"fmt"
)

// HardwareID is the opaque 32-byte identity of a physical device,
// derived from a hardware-embedded secret. It is only ever used as a
// lookup key; the service never interprets its contents.
type HardwareID [32]byte

// FirmwareHash identifies a firmware build.
type FirmwareHash [32]byte

// ExecutionHash is the hash of a computation's output. The verifier
// treats it as opaque application data bound into the receipt digest.
type ExecutionHash [32]byte

// Digest is a 32-byte receipt digest (Keccak-256 over the receipt material).
type Digest [32]byte

// Address identifies a caller. The owner address gates every mutating
// registry operation.
type Address [20]byte

var ZeroAddress Address

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (h HardwareID) Hex() string    { return hex.EncodeToString(h[:]) }
func (h FirmwareHash) Hex() string  { return hex.EncodeToString(h[:]) }
func (h ExecutionHash) Hex() string { return hex.EncodeToString(h[:]) }
func (d Digest) Hex() string        { return hex.EncodeToString(d[:]) }

// Receipt is the caller-supplied tuple asserting "this device, running this
// firmware, produced this result, at this counter". It exists only for the
// duration of one verification call and is never stored.
type Receipt struct {
	HardwareID    HardwareID
	FirmwareHash  FirmwareHash
	ExecutionHash ExecutionHash
	Counter       uint64
	ClaimedDigest Digest

	// Proof carries the serialized ZK execution proof on the v2 path.
	// Empty on the v1 path.
	Proof []byte
}

// ZKConfig is the proof-gate configuration for the extended verification
// path. VerifierRef is empty until the owner configures a verifier.
// Enforce defaults to false (audit mode: proof failures are recorded but
// do not fail the call).
type ZKConfig struct {
	VerifierRef string
	Enforce     bool
	VerifyCount uint64
}

func parse32(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(value)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func ParseHardwareID(value string) (HardwareID, error) {
	raw, err := parse32(value)
	return HardwareID(raw), err
}

func ParseFirmwareHash(value string) (FirmwareHash, error) {
	raw, err := parse32(value)
	return FirmwareHash(raw), err
}

func ParseExecutionHash(value string) (ExecutionHash, error) {
	raw, err := parse32(value)
	return ExecutionHash(raw), err
}

func ParseDigest(value string) (Digest, error) {
	raw, err := parse32(value)
	return Digest(raw), err
}

func ParseAddress(value string) (Address, error) {
	var out Address
	raw, err := hex.DecodeString(value)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("expected 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
