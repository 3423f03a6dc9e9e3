package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agentswarm.treasury/internal/signing"
)

// Client talks to the collaborator identity service, signing every request
// with the ERC-8128 profile.
type Client struct {
	BaseURL    string
	Signer     *signing.Signer
	HTTPClient *http.Client
}

func New(baseURL string, signer *signing.Signer) *Client {
	return &Client{BaseURL: baseURL, Signer: signer, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

type registerWorkerRequest struct {
	WalletAddress string `json:"wallet_address"`
	DisplayName   string `json:"display_name"`
}

type registerWorkerResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
	Executor struct {
		ID string `json:"id"`
	} `json:"executor"`
}

// RegisterWorker POSTs an idempotent worker-creation request. HTTP 409 is
// treated as success: the wallet is already registered.
func (c *Client) RegisterWorker(ctx context.Context, addr, displayName string) (WorkerResult, error) {
	body, err := json.Marshal(registerWorkerRequest{WalletAddress: addr, DisplayName: displayName})
	if err != nil {
		return WorkerResult{}, err
	}

	var resp registerWorkerResponse
	status, err := c.post(ctx, "/api/v1/workers/register", body, &resp)
	if err != nil {
		return WorkerResult{}, err
	}

	executorID := resp.Executor.ID
	if executorID == "" {
		executorID = resp.ID
	}
	return WorkerResult{ExecutorID: executorID, AlreadyExisted: status == http.StatusConflict}, nil
}

type registerReputationRequest struct {
	Network   string          `json:"network"`
	AgentURI  string          `json:"agent_uri"`
	Recipient string          `json:"recipient"`
	Metadata  []MetadataEntry `json:"metadata"`
}

type registerReputationResponse struct {
	Success     bool   `json:"success"`
	AgentID     string `json:"agent_id"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Error       string `json:"error"`
}

// RegisterReputation POSTs the on-chain identity registration step. A
// response whose error text semantically indicates "already registered" is
// reported as AlreadyExisted, not a failure.
func (c *Client) RegisterReputation(ctx context.Context, network, agentURI, recipient string, metadata []MetadataEntry) (*ReputationResult, error) {
	body, err := json.Marshal(registerReputationRequest{
		Network:   network,
		AgentURI:  agentURI,
		Recipient: recipient,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, err
	}

	var resp registerReputationResponse
	if _, err := c.post(ctx, "/api/v1/reputation/register", body, &resp); err != nil {
		return nil, err
	}

	result := &ReputationResult{
		Success:     resp.Success,
		AgentID:     resp.AgentID,
		Transaction: resp.Transaction,
		Network:     resp.Network,
		Error:       resp.Error,
	}
	if !resp.Success && isAlreadyRegisteredError(resp.Error) {
		result.AlreadyExisted = true
	}
	return result, nil
}

func isAlreadyRegisteredError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already") || strings.Contains(lower, "duplicate")
}

// post signs and sends body to path, decoding the JSON response into out. It
// returns the HTTP status code alongside any error so 409-as-success can be
// distinguished from a genuine transport failure.
func (c *Client) post(ctx context.Context, path string, body []byte, out interface{}) (int, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return 0, err
	}

	headers, err := c.Signer.Sign(ctx, signing.SignableRequest{
		Method:    http.MethodPost,
		Authority: u.Host,
		Path:      path,
		Body:      body,
	})
	if err != nil {
		return 0, fmt.Errorf("identity: signing request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Signature", headers.Signature)
	httpReq.Header.Set("Signature-Input", headers.SignatureInput)
	if headers.ContentDigest != "" {
		httpReq.Header.Set("Content-Digest", headers.ContentDigest)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode == http.StatusConflict {
		_ = json.Unmarshal(raw, out) // best-effort: adopt executor_id if the body carries one
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("identity: %s returned %d: %s", path, resp.StatusCode, string(raw))
	}
	return resp.StatusCode, json.Unmarshal(raw, out)
}
