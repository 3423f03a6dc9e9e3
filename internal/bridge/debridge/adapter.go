// Package debridge implements bridge.Adapter against deBridge's DLN API.
// The HTTP payload shapes are treated as an opaque contract: deBridge's
// "not_found" state means the indexer hasn't caught up yet, not that the
// order failed, so it is mapped to Pending rather than a terminal state.
package debridge

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

// Adapter talks to the DLN API. It sends QuoteRequest.SrcChain/DstChain
// unchanged as deBridge's own chain ids, which diverge from EVM chain ids
// for some chains (Monad uses the synthetic id "100000030" — see
// registry.ChainInfo.DebridgeChainID, which the caller is expected to
// resolve before building a QuoteRequest); it does no mapping of its own.
type Adapter struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Adapter {
	return &Adapter{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

type createOrderRequest struct {
	SrcChainID string `json:"src_chain_id"`
	DstChainID string `json:"dst_chain_id"`
	SrcToken   string `json:"src_token"`
	DstToken   string `json:"dst_token"`
	Amount     string `json:"amount"`
	Sender     string `json:"sender"`
	Receiver   string `json:"receiver"`
}

type createOrderResponse struct {
	To               string `json:"to"`
	Data             string `json:"data"`
	Value            string `json:"value"`
	SrcAmountRequired string `json:"src_amount_required"`
	OrderID          string `json:"order_id"`
	TrackingURL      string `json:"tracking_url"`
}

// Quote requests a DLN order and returns it as a provider-opaque bridge.Quote.
func (a *Adapter) Quote(ctx context.Context, req bridge.QuoteRequest) (bridge.Quote, error) {
	body, err := json.Marshal(createOrderRequest{
		SrcChainID: req.SrcChain,
		DstChainID: req.DstChain,
		SrcToken:   req.Token,
		DstToken:   req.Token,
		Amount:     req.Amount.String(),
		Sender:     req.Sender,
		Receiver:   req.Receiver,
	})
	if err != nil {
		return bridge.Quote{}, err
	}

	var resp createOrderResponse
	if err := a.post(ctx, "/dln/order/create-tx", body, &resp); err != nil {
		return bridge.Quote{}, err
	}

	srcAmount, ok := new(big.Int).SetString(resp.SrcAmountRequired, 10)
	if !ok {
		return bridge.Quote{}, fmt.Errorf("debridge: malformed src_amount_required %q", resp.SrcAmountRequired)
	}
	value, _ := new(big.Int).SetString(resp.Value, 10)
	if value == nil {
		value = big.NewInt(0)
	}

	return bridge.Quote{
		Provider:     bridge.ProviderDebridge,
		To:           resp.To,
		Data:         mustDecodeHex(resp.Data),
		Value:        value,
		SrcAmount:    srcAmount,
		SrcToken:     req.Token,
		OrderOrQuote: resp.OrderID,
		TrackingURL:  resp.TrackingURL,
	}, nil
}

// Send broadcasts the quoted transaction through signer.
func (a *Adapter) Send(ctx context.Context, q bridge.Quote, signer bridge.TxSigner) (string, error) {
	return signer.Send(ctx, "", q.To, q.Data, q.Value)
}

type orderStatusResponse struct {
	Status string `json:"status"`
}

// Poll maps deBridge's order status vocabulary onto bridge.Status.
// "not_found" is explicitly not terminal: the indexer lags chain finality.
func (a *Adapter) Poll(ctx context.Context, q bridge.Quote) (bridge.Status, error) {
	var resp orderStatusResponse
	path := "/dln/order/" + q.OrderOrQuote + "/status"
	if err := a.get(ctx, path, &resp); err != nil {
		return "", err
	}

	switch resp.Status {
	case "not_found", "created", "pending", "fulfilled_unconfirmed":
		return bridge.StatusPending, nil
	case "Fulfilled", "ClaimedUnlock":
		return bridge.StatusSuccess, nil
	case "Cancelled":
		return bridge.StatusCancelled, nil
	case "SentUnlock":
		return bridge.StatusRefund, nil
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
		return fmt.Errorf("debridge: %s returned %d: %s", httpReq.URL.Path, resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}

// mustDecodeHex decodes a "0x"-prefixed hex calldata string. The DLN API is
// trusted transport (TLS to deBridge's own endpoint); a malformed response
// here is a provider-side bug, not a value worth threading an error return
// through Quote for.
func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil
	}
	return b
}
