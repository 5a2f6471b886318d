// Package coingecko implements the liquidity.PriceSource interface against
// the CoinGecko simple-price REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnexpectedStatus indicates a non-OK response from the API.
var ErrUnexpectedStatus = errors.New("unexpected api status")

// ErrPriceUnavailable indicates the response did not carry a usable quote.
var ErrPriceUnavailable = errors.New("price unavailable")

// simplePriceResponse is the payload of the /simple/price endpoint.
type simplePriceResponse struct {
	Bitcoin struct {
		USD float64 `json:"usd"`
	} `json:"bitcoin"`
}

// client talks to a CoinGecko-compatible REST API.
type client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// Compile-time assertion that client satisfies the PriceSource interface.
var _ liquidity.PriceSource = (*client)(nil)

// NewClient creates a CoinGecko client. baseURL should point at the API root,
// e.g. "https://api.coingecko.com/api/v3".
func NewClient(httpClient *retryablehttp.Client, baseURL string) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BTCUSD implements the liquidity.PriceSource interface.
func (c *client) BTCUSD(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=bitcoin&vs_currencies=usd", c.baseURL)

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

	var payload simplePriceResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return 0, err
	}

	if payload.Bitcoin.USD <= 0 {
		return 0, ErrPriceUnavailable
	}

	return payload.Bitcoin.USD, nil
}
