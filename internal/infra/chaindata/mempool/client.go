// Package mempool implements the chain-data interfaces against the
// mempool.space REST API.
package mempool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrTransactionNotFound indicates that the API does not know the
// transaction, e.g. a txid that was never broadcast.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrUnexpectedStatus indicates a non-OK response from the API.
var ErrUnexpectedStatus = errors.New("unexpected api status")

// client talks to a mempool.space-compatible REST API.
type client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// Compile-time assertions that client satisfies the domain interfaces.
var (
	_ txwatch.ChainData    = (*client)(nil)
	_ blocknotify.ChainTip = (*client)(nil)
)

// NewClient creates a mempool.space client. baseURL should point at the API
// root, e.g. "https://mempool.space/api".
func NewClient(httpClient *retryablehttp.Client, baseURL string) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// getTransaction fetches the raw transaction payload for txid.
func (c *client) getTransaction(ctx context.Context, txid string) (TransactionResponse, error) {
	url := fmt.Sprintf("%s/tx/%s", c.baseURL, txid)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TransactionResponse{}, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return TransactionResponse{}, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return TransactionResponse{}, ErrTransactionNotFound
	default:
		return TransactionResponse{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	var tx TransactionResponse
	return tx, json.NewDecoder(res.Body).Decode(&tx)
}

// TransactionStatus implements the txwatch.ChainData interface.
func (c *client) TransactionStatus(ctx context.Context, txid string) (txwatch.TxStatus, error) {
	tx, err := c.getTransaction(ctx, txid)
	if err != nil {
		return txwatch.TxStatus{}, err
	}

	return txwatch.TxStatus{
		Confirmed:   tx.Status.Confirmed,
		BlockHeight: tx.Status.BlockHeight,
	}, nil
}

// TipHeight implements both the txwatch.ChainData and blocknotify.ChainTip
// interfaces. The endpoint answers with the height as plain text.
func (c *client) TipHeight(ctx context.Context) (int64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", c.baseURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing tip height: %w", err)
	}

	return height, nil
}
