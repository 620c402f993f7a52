package main

import (
	"flag"
	"fmt"
	"os"

	"anchord/internal/domain"
	cryptoinfra "anchord/internal/infra/crypto"
)

// runDigest computes the on-anchor receipt digest for a field tuple. With
// --chain-id it emits the chain-bound v2 digest, otherwise the legacy v1
// digest. Operators use this to build receipts for test devices.
func runDigest(args []string) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	hwIDHex := fs.String("hw-id", "", "hardware identity (64 hex chars)")
	fwHashHex := fs.String("fw-hash", "", "firmware hash (64 hex chars)")
	execHashHex := fs.String("exec-hash", "", "execution hash (64 hex chars)")
	counter := fs.Uint64("counter", 0, "receipt counter")
	chainID := fs.Uint64("chain-id", 0, "chain id for the v2 layout (omit for v1)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	hwID, err := domain.ParseHardwareID(*hwIDHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --hw-id: %v\n", err)
		return 1
	}
	fwHash, err := domain.ParseFirmwareHash(*fwHashHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --fw-hash: %v\n", err)
		return 1
	}
	execHash, err := domain.ParseExecutionHash(*execHashHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --exec-hash: %v\n", err)
		return 1
	}

	var digest domain.Digest
	if *chainID > 0 {
		digest = cryptoinfra.ReceiptDigestV2(*chainID, hwID, fwHash, execHash, *counter)
	} else {
		digest = cryptoinfra.ReceiptDigestV1(hwID, fwHash, execHash, *counter)
	}
	fmt.Println(digest.Hex())
	return 0
}
