package liquidity

import "context"

// satsPerBTC is the number of satoshis in one bitcoin.
const satsPerBTC = 100_000_000

// PriceSource quotes the current BTC/USD spot price.
type PriceSource interface {
	BTCUSD(ctx context.Context) (float64, error)
}

// usdToSats converts a USD amount to satoshis at the given BTC/USD price.
func usdToSats(usd, btcUSD float64) int64 {
	if btcUSD <= 0 {
		return 0
	}

	return int64(usd / btcUSD * satsPerBTC)
}

// satsToUSD converts a satoshi amount to USD at the given BTC/USD price.
func satsToUSD(sats int64, btcUSD float64) float64 {
	return float64(sats) * btcUSD / satsPerBTC
}
