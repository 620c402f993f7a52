package zk

import (
	"testing"
)

func TestResolver_RejectsUnknownScheme(t *testing.T) {
	r := NewResolver(nil)
	if _, err := r.Resolve("ipfs://whatever"); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
	if _, err := r.Resolve(""); err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestResolver_RemoteEndpointsMemoized(t *testing.T) {
	r := NewResolver(nil)
	first, err := r.Resolve("https://prover.internal")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := r.Resolve("https://prover.internal")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Fatal("expected the memoized verifier on the second resolve")
	}
}

func TestResolver_Groth16MissingKeyFile(t *testing.T) {
	r := NewResolver(nil)
	if _, err := r.Resolve("groth16:/nonexistent/vk.bin"); err == nil {
		t.Fatal("expected error for missing verifying key file")
	}
}

func TestResolver_DistinctRefsGetDistinctVerifiers(t *testing.T) {
	r := NewResolver(nil)
	a, err := r.Resolve("https://prover-a.internal")
	if err != nil {
		t.Fatalf("resolve a: %v", err)
	}
	b, err := r.Resolve("https://prover-b.internal")
	if err != nil {
		t.Fatalf("resolve b: %v", err)
	}
	if a == b {
		t.Fatal("distinct references resolved to the same verifier")
	}
}
