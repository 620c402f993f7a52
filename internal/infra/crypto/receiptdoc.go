package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ReceiptDocumentVersion is the only execution-receipt schema this tool
// accepts.
const ReceiptDocumentVersion = "1.0"

// HashReceiptDocument validates an execution-receipt JSON document and
// returns the lowercase hex SHA-256 of its canonical byte form. This digest
// scheme is unrelated to the on-anchor Keccak receipt digest: it identifies
// the full receipt document upstream of verification.
//
// Required shape:
//   - top-level string "version" equal to "1.0"
//   - string fields at context.engine and context.logic_hash
//   - top-level "input" and "output" present (any type)
//   - no numeric literal anywhere in the tree
func HashReceiptDocument(input []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ensureEOF(dec); err != nil {
		return "", err
	}
	if err := validateReceiptDocument(doc); err != nil {
		return "", err
	}

	buf := &bytes.Buffer{}
	if err := writeCanonical(buf, doc); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func validateReceiptDocument(doc map[string]any) error {
	version, ok := doc["version"].(string)
	if !ok {
		return errors.New(`missing or non-string field "version"`)
	}
	if version != ReceiptDocumentVersion {
		return fmt.Errorf("unsupported version %q, want %q", version, ReceiptDocumentVersion)
	}

	context, ok := doc["context"].(map[string]any)
	if !ok {
		return errors.New(`missing object field "context"`)
	}
	if _, ok := context["engine"].(string); !ok {
		return errors.New(`missing or non-string field "context.engine"`)
	}
	if _, ok := context["logic_hash"].(string); !ok {
		return errors.New(`missing or non-string field "context.logic_hash"`)
	}

	if _, ok := doc["input"]; !ok {
		return errors.New(`missing field "input"`)
	}
	if _, ok := doc["output"]; !ok {
		return errors.New(`missing field "output"`)
	}
	return nil
}
