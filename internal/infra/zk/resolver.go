// Package zk provides the external proof-verification capabilities the
// receipt verifier reaches through an owner-configured reference.
package zk

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"anchord/internal/usecase"
)

// Resolver maps verifier references to capabilities. Supported forms:
//
//	groth16:<verifying key file>   local gnark Groth16/BN254 verifier
//	http://... or https://...      remote verification endpoint
//
// Resolved capabilities are memoized per reference; a Groth16 verifying key
// is read once, not per receipt.
type Resolver struct {
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]usecase.ProofVerifier
}

func NewResolver(httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Resolver{
		httpClient: httpClient,
		cache:      make(map[string]usecase.ProofVerifier),
	}
}

func (r *Resolver) Resolve(ref string) (usecase.ProofVerifier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if verifier, ok := r.cache[ref]; ok {
		return verifier, nil
	}

	var (
		verifier usecase.ProofVerifier
		err      error
	)
	switch {
	case strings.HasPrefix(ref, "groth16:"):
		verifier, err = NewGroth16Verifier(strings.TrimPrefix(ref, "groth16:"))
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		verifier, err = NewRemoteVerifier(ref, r.httpClient)
	default:
		return nil, fmt.Errorf("unsupported verifier reference %q", ref)
	}
	if err != nil {
		return nil, err
	}
	r.cache[ref] = verifier
	return verifier, nil
}
