package zk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxRemoteResponseBytes = 64 * 1024

// RemoteVerifier reaches a proof-verification endpoint over HTTP. The
// endpoint answers POST /check with {"valid": bool}; anything else is a
// capability failure, never a pass.
type RemoteVerifier struct {
	baseURL string
	httpDo  func(*http.Request) (*http.Response, error)
}

func NewRemoteVerifier(baseURL string, httpClient *http.Client) (*RemoteVerifier, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("verifier base url is required")
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpDo:  doer,
	}, nil
}

type checkRequest struct {
	PublicInput string `json:"public_input"`
	Proof       string `json:"proof"`
}

type checkResponse struct {
	Valid bool `json:"valid"`
}

func (v *RemoteVerifier) Check(ctx context.Context, publicInput [32]byte, proof []byte) (bool, error) {
	body, err := json.Marshal(checkRequest{
		PublicInput: hex.EncodeToString(publicInput[:]),
		Proof:       base64.StdEncoding.EncodeToString(proof),
	})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/check", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpDo(req)
	if err != nil {
		return false, fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponseBytes))
	if err != nil {
		return false, err
	}
	var out checkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("decode verifier response: %w", err)
	}
	return out.Valid, nil
}
