package liquidity

import (
	"context"
	"strings"
)

// Offer is a Magma channel-sale offer. Sizes are in satoshis, rates in parts
// per million.
type Offer struct {
	ID            string
	Account       string // seller alias/account; "unknown" when absent
	BaseFee       int64  // flat fee in sats
	FeeRate       int64  // seller fee in ppm of the channel size
	AmbossFeeRate int64  // marketplace fee in ppm of the channel size
	MinSize       int64  // minimum channel size in sats
	MaxSize       int64  // maximum channel size in sats
	AllowParallel bool   // whether the seller opens multiple channels in parallel
	Conditions    []Condition
}

// Condition restricts who may take an offer, e.g. clearnet-only sellers.
type Condition struct {
	Condition string
	Operator  string
	Value     string
}

// OfferSource lists and resolves Magma offers.
type OfferSource interface {
	// ListEnabledOfferIDs returns the IDs of all offers currently enabled on
	// the marketplace.
	ListEnabledOfferIDs(ctx context.Context) ([]string, error)

	// GetOffer fetches the full details of one offer.
	GetOffer(ctx context.Context, id string) (Offer, error)
}

// IsTorRestricted reports whether the offer's conditions exclude Tor-only
// nodes: a NODE_SOCKETS condition requiring anything but Tor, or requiring a
// clearnet socket.
func (o Offer) IsTorRestricted() bool {
	for _, cond := range o.Conditions {
		if cond.Condition != "NODE_SOCKETS" {
			continue
		}

		switch {
		case cond.Operator == "NOT_EQUAL_TO" && strings.EqualFold(cond.Value, "TOR"):
			return true
		case cond.Operator == "CONTAINS" && strings.EqualFold(cond.Value, "CLEARNET"):
			return true
		}
	}

	return false
}

// torEligible filters out Tor-restricted offers.
func torEligible(offers []Offer) []Offer {
	eligible := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if !o.IsTorRestricted() {
			eligible = append(eligible, o)
		}
	}

	return eligible
}
