package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"anchord/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type verifyRequest struct {
	HWID          string `json:"hw_id"`
	FWHash        string `json:"fw_hash"`
	ExecHash      string `json:"exec_hash"`
	Counter       uint64 `json:"counter"`
	ClaimedDigest string `json:"claimed_digest"`
	ProofBase64   string `json:"proof,omitempty"`
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	HWID     string `json:"hw_id"`
	Counter  uint64 `json:"counter"`
}

type transferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

type setZKVerifierRequest struct {
	Verifier string `json:"verifier"`
}

type setZKModeRequest struct {
	Enforce bool `json:"enforce"`
}

func (s *Server) handleVerifyV1(c *gin.Context) {
	if !s.allowRequest(c) {
		return
	}
	receipt, ok := parseVerifyRequest(c)
	if !ok {
		return
	}
	if err := s.verifier.VerifyV1(c.Request.Context(), receipt); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{
		Verified: true,
		HWID:     receipt.HardwareID.Hex(),
		Counter:  receipt.Counter,
	})
}

func (s *Server) handleVerifyV2(c *gin.Context) {
	if !s.allowRequest(c) {
		return
	}
	receipt, ok := parseVerifyRequest(c)
	if !ok {
		return
	}
	if err := s.verifier.VerifyV2(c.Request.Context(), receipt); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{
		Verified: true,
		HWID:     receipt.HardwareID.Hex(),
		Counter:  receipt.Counter,
	})
}

func parseVerifyRequest(c *gin.Context) (domain.Receipt, bool) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return domain.Receipt{}, false
	}
	hwID, err := domain.ParseHardwareID(req.HWID)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_RECEIPT", "invalid hw_id")
		return domain.Receipt{}, false
	}
	fwHash, err := domain.ParseFirmwareHash(req.FWHash)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_RECEIPT", "invalid fw_hash")
		return domain.Receipt{}, false
	}
	execHash, err := domain.ParseExecutionHash(req.ExecHash)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_RECEIPT", "invalid exec_hash")
		return domain.Receipt{}, false
	}
	digest, err := domain.ParseDigest(req.ClaimedDigest)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_RECEIPT", "invalid claimed_digest")
		return domain.Receipt{}, false
	}
	var proof []byte
	if req.ProofBase64 != "" {
		proof, err = base64.StdEncoding.DecodeString(req.ProofBase64)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_RECEIPT", "invalid proof encoding")
			return domain.Receipt{}, false
		}
	}
	return domain.Receipt{
		HardwareID:    hwID,
		FirmwareHash:  fwHash,
		ExecutionHash: execHash,
		Counter:       req.Counter,
		ClaimedDigest: digest,
		Proof:         proof,
	}, true
}

func (s *Server) handleInitialize(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	if err := s.admin.Initialize(c.Request.Context(), caller); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": caller.Hex()})
}

func (s *Server) handleAuthorizeNode(c *gin.Context) {
	s.handleNodeMutation(c, true)
}

func (s *Server) handleRevokeNode(c *gin.Context) {
	s.handleNodeMutation(c, false)
}

func (s *Server) handleNodeMutation(c *gin.Context, authorize bool) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	hwID, err := domain.ParseHardwareID(c.Param("hw_id"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_HW_ID", "invalid hw_id")
		return
	}
	if authorize {
		err = s.admin.AuthorizeNode(c.Request.Context(), caller, hwID)
	} else {
		err = s.admin.RevokeNode(c.Request.Context(), caller, hwID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hw_id": hwID.Hex(), "authorized": authorize})
}

func (s *Server) handleApproveFirmware(c *gin.Context) {
	s.handleFirmwareMutation(c, true)
}

func (s *Server) handleRevokeFirmware(c *gin.Context) {
	s.handleFirmwareMutation(c, false)
}

func (s *Server) handleFirmwareMutation(c *gin.Context, approve bool) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	fwHash, err := domain.ParseFirmwareHash(c.Param("fw_hash"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_FW_HASH", "invalid fw_hash")
		return
	}
	if approve {
		err = s.admin.ApproveFirmware(c.Request.Context(), caller, fwHash)
	} else {
		err = s.admin.RevokeFirmware(c.Request.Context(), caller, fwHash)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fw_hash": fwHash.Hex(), "approved": approve})
}

func (s *Server) handleTransferOwnership(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	var req transferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	newOwner, err := domain.ParseAddress(req.NewOwner)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_OWNER", "invalid new_owner")
		return
	}
	if err := s.admin.TransferOwnership(c.Request.Context(), caller, newOwner); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": newOwner.Hex()})
}

func (s *Server) handleSetZKVerifier(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	var req setZKVerifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.Verifier == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_VERIFIER", "verifier reference required")
		return
	}
	if err := s.admin.SetZKVerifier(c.Request.Context(), caller, req.Verifier); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifier": req.Verifier})
}

func (s *Server) handleSetZKMode(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	var req setZKModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if err := s.admin.SetZKMode(c.Request.Context(), caller, req.Enforce); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enforce": req.Enforce})
}

func (s *Server) handleNodeAuthorized(c *gin.Context) {
	hwID, err := domain.ParseHardwareID(c.Param("hw_id"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_HW_ID", "invalid hw_id")
		return
	}
	authorized, err := s.registry.IsNodeAuthorized(c.Request.Context(), hwID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hw_id": hwID.Hex(), "authorized": authorized})
}

func (s *Server) handleFirmwareApproved(c *gin.Context) {
	fwHash, err := domain.ParseFirmwareHash(c.Param("fw_hash"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_FW_HASH", "invalid fw_hash")
		return
	}
	approved, err := s.registry.IsFirmwareApproved(c.Request.Context(), fwHash)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fw_hash": fwHash.Hex(), "approved": approved})
}

func (s *Server) handleCounter(c *gin.Context) {
	hwID, err := domain.ParseHardwareID(c.Param("hw_id"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_HW_ID", "invalid hw_id")
		return
	}
	counter, err := s.counters.Current(c.Request.Context(), hwID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hw_id": hwID.Hex(), "counter": counter})
}

func (s *Server) handleOwner(c *gin.Context) {
	owner, err := s.admin.Owner(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner.Hex(), "initialized": !owner.IsZero()})
}

func (s *Server) handleZKInfo(c *gin.Context) {
	cfg, err := s.zk.ZKConfig(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verifier":     cfg.VerifierRef,
		"enforce":      cfg.Enforce,
		"verify_count": cfg.VerifyCount,
	})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrAlreadyInitialized):
		status, code = http.StatusConflict, "ALREADY_INITIALIZED"
	case errors.Is(err, domain.ErrUnauthorizedCaller):
		status, code = http.StatusForbidden, "UNAUTHORIZED_CALLER"
	case errors.Is(err, domain.ErrInvalidOwner):
		status, code = http.StatusBadRequest, "INVALID_OWNER"
	case errors.Is(err, domain.ErrUnauthorizedHardware):
		status, code = http.StatusForbidden, "UNAUTHORIZED_HARDWARE"
	case errors.Is(err, domain.ErrFirmwareNotApproved):
		status, code = http.StatusForbidden, "FIRMWARE_NOT_APPROVED"
	case errors.Is(err, domain.ErrReplayDetected):
		status, code = http.StatusConflict, "REPLAY_DETECTED"
	case errors.Is(err, domain.ErrDigestMismatch):
		status, code = http.StatusUnprocessableEntity, "DIGEST_MISMATCH"
	case errors.Is(err, domain.ErrZkVerifierNotSet):
		status, code = http.StatusConflict, "ZK_VERIFIER_NOT_SET"
	case errors.Is(err, domain.ErrZkProofMissing):
		status, code = http.StatusUnprocessableEntity, "ZK_PROOF_MISSING"
	case errors.Is(err, domain.ErrZkProofInvalid):
		status, code = http.StatusUnprocessableEntity, "ZK_PROOF_INVALID"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
