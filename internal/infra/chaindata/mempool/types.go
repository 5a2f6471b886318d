package mempool

// TxStatusResponse is the inclusion status block returned inside a
// mempool.space transaction response.
type TxStatusResponse struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int64  `json:"block_height,omitempty"`
	BlockHash   string `json:"block_hash,omitempty"`
	BlockTime   int64  `json:"block_time,omitempty"`
}

// TransactionResponse is the subset of the mempool.space transaction payload
// this client needs. The full payload also carries inputs, outputs, and
// weight data that the confirmation watcher never reads.
type TransactionResponse struct {
	TxID   string           `json:"txid"`
	Fee    int64            `json:"fee"`
	Status TxStatusResponse `json:"status"`
}
