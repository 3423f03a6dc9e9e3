// Package squid implements bridge.Adapter against Squid Router's API. Like
// deBridge, its status vocabulary is encapsulated here so the router and
// executor never see provider-specific strings.
package squid

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"agentswarm.treasury/internal/bridge"
)

type Adapter struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Adapter {
	return &Adapter{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

type routeRequest struct {
	FromChain  string `json:"fromChain"`
	ToChain    string `json:"toChain"`
	FromToken  string `json:"fromToken"`
	ToToken    string `json:"toToken"`
	FromAmount string `json:"fromAmount"`
	FromAddress string `json:"fromAddress"`
	ToAddress  string `json:"toAddress"`
}

type routeResponse struct {
	TransactionRequest struct {
		TargetAddress string `json:"targetAddress"`
		Data          string `json:"data"`
		Value         string `json:"value"`
	} `json:"transactionRequest"`
	Estimate struct {
		FromAmount string `json:"fromAmount"`
	} `json:"estimate"`
	RequestID string `json:"requestId"`
	RouteURL  string `json:"routeUrl"`
}

// Quote requests a Squid route and returns it as a provider-opaque bridge.Quote.
func (a *Adapter) Quote(ctx context.Context, req bridge.QuoteRequest) (bridge.Quote, error) {
	body, err := json.Marshal(routeRequest{
		FromChain: req.SrcChain, ToChain: req.DstChain,
		FromToken: req.Token, ToToken: req.Token,
		FromAmount: req.Amount.String(),
		FromAddress: req.Sender, ToAddress: req.Receiver,
	})
	if err != nil {
		return bridge.Quote{}, err
	}

	var resp routeResponse
	if err := a.post(ctx, "/v2/route", body, &resp); err != nil {
		return bridge.Quote{}, err
	}

	srcAmount, ok := new(big.Int).SetString(resp.Estimate.FromAmount, 10)
	if !ok {
		return bridge.Quote{}, fmt.Errorf("squid: malformed estimate.fromAmount %q", resp.Estimate.FromAmount)
	}
	value, _ := new(big.Int).SetString(resp.TransactionRequest.Value, 10)
	if value == nil {
		value = big.NewInt(0)
	}

	return bridge.Quote{
		Provider:     bridge.ProviderSquid,
		To:           resp.TransactionRequest.TargetAddress,
		Data:         mustDecodeHex(resp.TransactionRequest.Data),
		Value:        value,
		SrcAmount:    srcAmount,
		SrcToken:     req.Token,
		OrderOrQuote: resp.RequestID,
		TrackingURL:  resp.RouteURL,
	}, nil
}

// Send broadcasts the quoted transaction through signer.
func (a *Adapter) Send(ctx context.Context, q bridge.Quote, signer bridge.TxSigner) (string, error) {
	return signer.Send(ctx, "", q.To, q.Data, q.Value)
}

type statusResponse struct {
	Status string `json:"status"`
}

// Poll maps Squid's status vocabulary onto bridge.Status. Terminal set:
// {success, partial_success, needs_gas, refund}.
// "not_found" is not terminal — the same indexer-lag reasoning as deBridge.
func (a *Adapter) Poll(ctx context.Context, q bridge.Quote) (bridge.Status, error) {
	var resp statusResponse
	path := "/v2/status?requestId=" + q.OrderOrQuote
	if err := a.get(ctx, path, &resp); err != nil {
		return "", err
	}

	switch resp.Status {
	case "success":
		return bridge.StatusSuccess, nil
	case "partial_success":
		return bridge.StatusPartialSuccess, nil
	case "needs_gas":
		return bridge.StatusNeedsGas, nil
	case "refund":
		return bridge.StatusRefund, nil
	case "not_found", "ongoing":
		return bridge.StatusPending, nil
	default:
		return bridge.StatusPending, nil
	}
}

func (a *Adapter) post(ctx context.Context, path string, body []byte, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return a.do(httpReq, out)
}

func (a *Adapter) get(ctx context.Context, path string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return a.do(httpReq, out)
}

func (a *Adapter) do(httpReq *http.Request, out interface{}) error {
	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("squid: %s returned %d: %s", httpReq.URL.Path, resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil
	}
	return b
}
