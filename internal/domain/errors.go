package domain

import "errors"

var (
	ErrAlreadyInitialized   = errors.New("already initialized")
	ErrUnauthorizedCaller   = errors.New("unauthorized caller")
	ErrInvalidOwner         = errors.New("invalid owner")
	ErrUnauthorizedHardware = errors.New("unauthorized hardware")
	ErrFirmwareNotApproved  = errors.New("firmware not approved")
	ErrReplayDetected       = errors.New("replay detected")
	ErrDigestMismatch       = errors.New("digest mismatch")
	ErrZkVerifierNotSet     = errors.New("zk verifier not set")
	ErrZkProofMissing       = errors.New("zk proof missing")
	ErrZkProofInvalid       = errors.New("zk proof invalid")
)
