package amboss

import (
	"strconv"

	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"
)

// offerSummary is one entry of the getOffers listing.
type offerSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// getOffersResponse is the payload of the getOffers query.
type getOffersResponse struct {
	GetOffers struct {
		List []offerSummary `json:"list"`
	} `json:"getOffers"`
}

// conditionResponse is one offer condition as returned by the API.
type conditionResponse struct {
	Condition string `json:"condition"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
}

// offerResponse is the payload of the getOffer query. Amboss returns the
// numeric fields as strings.
type offerResponse struct {
	ID            string              `json:"id"`
	Account       string              `json:"account"`
	BaseFee       string              `json:"base_fee"`
	FeeRate       string              `json:"fee_rate"`
	AmbossFeeRate string              `json:"amboss_fee_rate"`
	MinSize       string              `json:"min_size"`
	MaxSize       string              `json:"max_size"`
	AllowParallel bool                `json:"allow_parallel"`
	Conditions    []conditionResponse `json:"conditions"`
}

// getOfferResponse wraps a single offer payload.
type getOfferResponse struct {
	GetOffer offerResponse `json:"getOffer"`
}

// parseAmount parses one of Amboss' stringified integers. Empty strings
// decode to zero.
func parseAmount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// toLiquidityOffer converts the API payload into the domain offer type.
func (o offerResponse) toLiquidityOffer() (liquidity.Offer, error) {
	baseFee, err := parseAmount(o.BaseFee)
	if err != nil {
		return liquidity.Offer{}, err
	}

	feeRate, err := parseAmount(o.FeeRate)
	if err != nil {
		return liquidity.Offer{}, err
	}

	ambossFeeRate, err := parseAmount(o.AmbossFeeRate)
	if err != nil {
		return liquidity.Offer{}, err
	}

	minSize, err := parseAmount(o.MinSize)
	if err != nil {
		return liquidity.Offer{}, err
	}

	maxSize, err := parseAmount(o.MaxSize)
	if err != nil {
		return liquidity.Offer{}, err
	}

	conditions := make([]liquidity.Condition, len(o.Conditions))
	for i, c := range o.Conditions {
		conditions[i] = liquidity.Condition{
			Condition: c.Condition,
			Operator:  c.Operator,
			Value:     c.Value,
		}
	}

	account := o.Account
	if account == "" {
		account = "unknown"
	}

	return liquidity.Offer{
		ID:            o.ID,
		Account:       account,
		BaseFee:       baseFee,
		FeeRate:       feeRate,
		AmbossFeeRate: ambossFeeRate,
		MinSize:       minSize,
		MaxSize:       maxSize,
		AllowParallel: o.AllowParallel,
		Conditions:    conditions,
	}, nil
}
