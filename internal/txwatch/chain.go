package txwatch

import "context"

// TxStatus is the chain-data view of a transaction's inclusion state.
type TxStatus struct {
	Confirmed   bool  // whether the transaction is included in a block
	BlockHeight int64 // height of the including block; meaningless when unconfirmed
}

// ChainData reads transaction and chain-tip state from a block explorer API.
type ChainData interface {
	// TransactionStatus returns the inclusion status of txid.
	TransactionStatus(ctx context.Context, txid string) (TxStatus, error)

	// TipHeight returns the height of the current chain tip.
	TipHeight(ctx context.Context) (int64, error)
}

// confirmations computes the confirmation count for a transaction: the
// number of blocks mined on top of its including block, plus one for the
// block itself. Unconfirmed transactions have zero confirmations.
func confirmations(status TxStatus, tipHeight int64) int64 {
	if !status.Confirmed || status.BlockHeight <= 0 {
		return 0
	}

	confs := tipHeight - status.BlockHeight + 1
	if confs < 0 {
		return 0
	}

	return confs
}

// fetchConfirmations resolves the live confirmation count for txid by
// combining its inclusion status with the current tip height. The tip is
// only fetched when the transaction is confirmed.
func (s *service) fetchConfirmations(ctx context.Context, txid string) (int64, error) {
	status, err := s.chainData.TransactionStatus(ctx, txid)
	if err != nil {
		return 0, err
	}

	if !status.Confirmed {
		return 0, nil
	}

	tip, err := s.chainData.TipHeight(ctx)
	if err != nil {
		return 0, err
	}

	return confirmations(status, tip), nil
}
