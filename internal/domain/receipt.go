package domain

// Receipt proves a finalized ledger write: the transaction identifier plus the
// block height it was included in. A write that produced no receipt is not
// finalized and must never be persisted as having occurred.
type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}
