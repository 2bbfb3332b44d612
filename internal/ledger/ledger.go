package ledger

import "context"

// Item is one ledger row. The store is a plain (partition, sort key)
// key-value surface; which amount fields are meaningful depends on the
// partition, and the store performs no validation beyond shape.
type Item struct {
	Partition    string `json:"partition"`
	SortKey      uint64 `json:"sort_key"`
	Amount       int64  `json:"amount"`
	MSpellAmount int64  `json:"mspell_amount,omitempty"`
	SSpellAmount int64  `json:"sspell_amount,omitempty"`
	TxHash       string `json:"tx_hash,omitempty"`
}

// Store persists ledger items. Writes are idempotent by overwrite on
// (partition, sort key); concurrent writers to the same key are
// last-write-wins with no version check.
type Store interface {
	BatchPut(ctx context.Context, partition string, items []Item) error
	Query(ctx context.Context, partition string, mostRecentN int) ([]Item, error)
}
