package domain

import "time"

const (
	AuditEventNodeAuthorized       = "node_authorized"
	AuditEventNodeRevoked          = "node_revoked"
	AuditEventFirmwareApproved     = "firmware_approved"
	AuditEventFirmwareRevoked      = "firmware_revoked"
	AuditEventOwnershipTransferred = "ownership_transferred"
	AuditEventZkVerifierSet        = "zk_verifier_set"
	AuditEventZkModeSet            = "zk_mode_set"
	AuditEventZkProofAuditFailed   = "zk_proof_audit_failed"
)

// AuditEvent is an append-only operational record. The zk_proof_audit_failed
// event is the one event the verification pipeline itself emits: in audit
// mode a failed proof is recorded here instead of failing the call.
type AuditEvent struct {
	ID          string
	EventType   string
	Payload     map[string]any
	PayloadHash string
	CreatedAt   time.Time
}
