package model

// LogEntry is one emitted log inside a transaction receipt. Ordering
// within a receipt is significant: positional lookups rely on it.
type LogEntry struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Receipt is the ordered log list emitted by one transaction.
type Receipt struct {
	TxHash string     `json:"tx_hash"`
	Logs   []LogEntry `json:"logs"`
}
