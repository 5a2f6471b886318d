// Package amboss implements the liquidity.OfferSource interface against the
// Amboss GraphQL API. Requests authenticate with the x-api-key header.
package amboss

import (
	"context"
	"encoding/json"

	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/transport/graphql"
)

const (
	// statusEnabled marks offers that can currently be taken.
	statusEnabled = "ENABLED"

	listOffersQuery = `query {
  getOffers {
    list {
      id
      status
    }
  }
}`

	getOfferQuery = `query ($id: String!) {
  getOffer(id: $id) {
    id
    account
    base_fee
    fee_rate
    amboss_fee_rate
    min_size
    max_size
    allow_parallel
    conditions {
      condition
      operator
      value
    }
  }
}`
)

// client resolves Magma offers through a GraphQL transport.
type client struct {
	conn graphql.Client
}

// Compile-time assertion that client satisfies the OfferSource interface.
var _ liquidity.OfferSource = (*client)(nil)

// NewClient creates an Amboss offer source on top of the given GraphQL client.
func NewClient(conn graphql.Client) *client {
	return &client{
		conn: conn,
	}
}

// ListEnabledOfferIDs implements the liquidity.OfferSource interface.
func (c *client) ListEnabledOfferIDs(ctx context.Context) ([]string, error) {
	data, err := c.conn.Query(ctx, listOffersQuery, nil)
	if err != nil {
		return nil, err
	}

	var payload getOffersResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(payload.GetOffers.List))
	for _, offer := range payload.GetOffers.List {
		if offer.Status == statusEnabled {
			ids = append(ids, offer.ID)
		}
	}

	return ids, nil
}

// GetOffer implements the liquidity.OfferSource interface.
func (c *client) GetOffer(ctx context.Context, id string) (liquidity.Offer, error) {
	data, err := c.conn.Query(ctx, getOfferQuery, map[string]any{"id": id})
	if err != nil {
		return liquidity.Offer{}, err
	}

	var payload getOfferResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return liquidity.Offer{}, err
	}

	// The API omits the id in some responses; trust the request.
	if payload.GetOffer.ID == "" {
		payload.GetOffer.ID = id
	}

	return payload.GetOffer.toLiquidityOffer()
}
