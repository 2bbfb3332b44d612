package model

// RawTransaction is one normalized entry from the account transaction source.
type RawTransaction struct {
	Hash      string `json:"hash"`
	Timestamp uint64 `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"` // raw base units, decimal string
	Input     string `json:"input"`
	IsError   bool   `json:"is_error"`
}
