package crypto

import (
	"encoding/binary"

	"anchord/internal/domain"

	"golang.org/x/crypto/sha3"
)

// ReceiptDomainTag prefixes every receipt digest material. It is an immutable
// protocol constant; changing it is a hard fork that invalidates every
// receipt produced by deployed firmware.
const ReceiptDomainTag = "anchor_RCT_V1"

const (
	v1MaterialLen = 117
	v2MaterialLen = 125
)

// ReceiptDigestV1 reconstructs the chain-agnostic v1 receipt digest:
// Keccak-256 over tag(13) || hw_id(32) || fw_hash(32) || exec_hash(32) ||
// counter(8, big-endian).
func ReceiptDigestV1(hwID domain.HardwareID, fwHash domain.FirmwareHash, execHash domain.ExecutionHash, counter uint64) domain.Digest {
	material := make([]byte, 0, v1MaterialLen)
	material = append(material, ReceiptDomainTag...)
	material = append(material, hwID[:]...)
	material = append(material, fwHash[:]...)
	material = append(material, execHash[:]...)
	material = binary.BigEndian.AppendUint64(material, counter)
	return keccak256(material)
}

// ReceiptDigestV2 reconstructs the chain-bound v2 receipt digest. The chain
// id sits directly after the domain tag so a receipt minted for one
// deployment can never verify on another.
func ReceiptDigestV2(chainID uint64, hwID domain.HardwareID, fwHash domain.FirmwareHash, execHash domain.ExecutionHash, counter uint64) domain.Digest {
	material := make([]byte, 0, v2MaterialLen)
	material = append(material, ReceiptDomainTag...)
	material = binary.BigEndian.AppendUint64(material, chainID)
	material = append(material, hwID[:]...)
	material = append(material, fwHash[:]...)
	material = append(material, execHash[:]...)
	material = binary.BigEndian.AppendUint64(material, counter)
	return keccak256(material)
}

// Keccak256 computes the legacy (pre-NIST) Keccak-256 digest.
func Keccak256(data []byte) [32]byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

func keccak256(data []byte) domain.Digest {
	return domain.Digest(Keccak256(data))
}
