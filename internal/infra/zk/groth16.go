package zk

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// executionCircuit binds the single public input of the execution-proof
// circuit: the execution hash the prover commits to. Only the shape matters
// here; the real constraints are fixed in the verifying key.
type executionCircuit struct {
	ExecutionHash frontend.Variable `gnark:",public"`
}

func (c *executionCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.ExecutionHash, c.ExecutionHash)
	return nil
}

// Groth16Verifier checks Groth16/BN254 proofs against a verifying key
// loaded once from disk.
type Groth16Verifier struct {
	vk groth16.VerifyingKey
}

func NewGroth16Verifier(vkPath string) (*Groth16Verifier, error) {
	f, err := os.Open(vkPath)
	if err != nil {
		return nil, fmt.Errorf("open verifying key: %w", err)
	}
	defer f.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read verifying key: %w", err)
	}
	return &Groth16Verifier{vk: vk}, nil
}

// Check deserializes the proof and verifies it against the public input.
// A malformed or failing proof is an invalid proof, not a system error.
func (v *Groth16Verifier) Check(_ context.Context, publicInput [32]byte, proof []byte) (bool, error) {
	proofObj := groth16.NewProof(ecc.BN254)
	if _, err := proofObj.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, nil
	}

	circuit := executionCircuit{
		ExecutionHash: new(big.Int).SetBytes(publicInput[:]),
	}
	publicWitness, err := frontend.NewWitness(&circuit, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("build public witness: %w", err)
	}

	if err := groth16.Verify(proofObj, v.vk, publicWitness); err != nil {
		return false, nil
	}
	return true, nil
}
