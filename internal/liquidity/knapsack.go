package liquidity

// chunk is one purchasable unit of an offer: min_size sats of liquidity at a
// fixed cost. Offers that allow parallel channels contribute several chunks.
type chunk struct {
	cost      int64  // sats paid for the chunk (base fee + proportional fees)
	liquidity int64  // sats of inbound liquidity received
	account   string // selling account, for the per-seller order tally
}

// chunkCost computes the sats paid for a channel of the offer's minimum
// size: the base fee plus the combined seller and marketplace ppm rates
// applied to the channel size.
func chunkCost(o Offer) int64 {
	feeSats := o.MinSize * (o.FeeRate + o.AmbossFeeRate) / 1_000_000
	return o.BaseFee + feeSats
}

// buildChunks expands offers into purchasable chunks for the given budget.
// An offer yields max_size/min_size chunks when it allows parallel channels
// and one chunk otherwise. Chunks that cannot fit the budget are skipped,
// and the per-offer chunk count is capped by how many times its cost fits
// into the budget, which keeps the table small for tiny-minimum offers.
func buildChunks(budgetSats int64, offers []Offer) []chunk {
	chunks := make([]chunk, 0, len(offers))
	for _, o := range offers {
		if o.MinSize <= 0 {
			continue
		}

		cost := chunkCost(o)
		if cost > budgetSats {
			continue
		}

		maxChunks := int64(1)
		if o.AllowParallel {
			maxChunks = o.MaxSize / o.MinSize
			if maxChunks < 1 {
				maxChunks = 1
			}
			if cost > 0 {
				if fit := budgetSats/cost + 1; maxChunks > fit {
					maxChunks = fit
				}
			}
		}

		account := o.Account
		if account == "" {
			account = "unknown"
		}

		for i := int64(0); i < maxChunks; i++ {
			chunks = append(chunks, chunk{
				cost:      cost,
				liquidity: o.MinSize,
				account:   account,
			})
		}
	}

	return chunks
}

// purchasePlan is the result of a knapsack run: the maximum liquidity
// purchasable within the budget, what it actually costs, and how many orders
// go to each seller.
type purchasePlan struct {
	LiquiditySats int64
	CostSats      int64
	Orders        map[string]int
}

// maxLiquidity solves a 0/1 knapsack over the offer chunks: maximize the
// total liquidity purchasable within budgetSats. The DP table is indexed by
// budget in sats; each cell keeps the best liquidity seen plus the cost and
// seller tally that achieved it.
func maxLiquidity(budgetSats int64, offers []Offer) purchasePlan {
	if budgetSats <= 0 {
		return purchasePlan{Orders: map[string]int{}}
	}

	chunks := buildChunks(budgetSats, offers)

	type cell struct {
		liquidity int64
		cost      int64
		orders    map[string]int
	}

	dp := make([]cell, budgetSats+1)
	for _, ch := range chunks {
		for b := budgetSats; b >= ch.cost; b-- {
			prev := dp[b-ch.cost]
			newLiquidity := prev.liquidity + ch.liquidity
			if newLiquidity <= dp[b].liquidity {
				continue
			}

			orders := make(map[string]int, len(prev.orders)+1)
			for k, v := range prev.orders {
				orders[k] = v
			}
			orders[ch.account]++

			dp[b] = cell{
				liquidity: newLiquidity,
				cost:      prev.cost + ch.cost,
				orders:    orders,
			}
		}
	}

	best := cell{orders: map[string]int{}}
	for _, c := range dp {
		if c.liquidity > best.liquidity {
			best = c
		}
	}

	if best.orders == nil {
		best.orders = map[string]int{}
	}

	return purchasePlan{
		LiquiditySats: best.liquidity,
		CostSats:      best.cost,
		Orders:        best.orders,
	}
}
