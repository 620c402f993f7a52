package usecase

import (
	"context"
	"fmt"

	"anchord/internal/domain"
)

// ZKGateway fronts the external proof-verification capability and applies
// the audit/enforce switch. It never caches or reinterprets the
// capability's answers.
type ZKGateway struct {
	resolver VerifierResolver
}

func NewZKGateway(resolver VerifierResolver) *ZKGateway {
	return &ZKGateway{resolver: resolver}
}

// Check runs the proof gate for one receipt. The gate fails closed: with no
// verifier configured it reports domain.ErrZkVerifierNotSet regardless of
// mode. In enforce mode a missing or invalid proof is a terminal error. In
// audit mode Check returns (false, nil) for a failed proof and the caller
// records the failure instead of aborting.
func (g *ZKGateway) Check(ctx context.Context, cfg domain.ZKConfig, execHash domain.ExecutionHash, proof []byte) (bool, error) {
	if cfg.VerifierRef == "" {
		return false, domain.ErrZkVerifierNotSet
	}
	if len(proof) == 0 {
		if cfg.Enforce {
			return false, domain.ErrZkProofMissing
		}
		return false, nil
	}

	verifier, err := g.resolver.Resolve(cfg.VerifierRef)
	if err != nil {
		return false, fmt.Errorf("resolve zk verifier %q: %w", cfg.VerifierRef, err)
	}
	valid, err := verifier.Check(ctx, execHash, proof)
	if err != nil {
		return false, fmt.Errorf("zk verifier check: %w", err)
	}
	if !valid && cfg.Enforce {
		return false, domain.ErrZkProofInvalid
	}
	return valid, nil
}
