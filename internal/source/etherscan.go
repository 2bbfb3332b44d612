package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"revenueScope/internal/model"
)

// endBlockLatest is the "up to latest" sentinel the explorer API expects.
const endBlockLatest = "999999999"

// EtherscanClient fetches token transfer transactions from an
// etherscan-compatible account API.
type EtherscanClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewEtherscanClient(baseURL, apiKey string, logger *zap.Logger) *EtherscanClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EtherscanClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type etherscanEnvelope struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Result  []etherscanTx `json:"result"`
}

type etherscanTx struct {
	Hash      string `json:"hash"`
	TimeStamp string `json:"timeStamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	Input     string `json:"input"`
	IsError   string `json:"isError"`
}

// TokenTransfers lists an address's transfers of one token contract,
// ascending by timestamp. Pass token == "" for all transfers.
func (c *EtherscanClient) TokenTransfers(ctx context.Context, address, token string) ([]model.RawTransaction, error) {
	query := url.Values{}
	query.Set("module", "account")
	query.Set("action", "tokentx")
	query.Set("address", address)
	if token != "" {
		query.Set("contractaddress", token)
	}
	query.Set("startblock", "0")
	query.Set("endblock", endBlockLatest)
	query.Set("sort", "asc")
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token transfers for %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token transfers for %s: status %d", address, resp.StatusCode)
	}

	var envelope etherscanEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The API reports "no transactions" as status 0.
	if envelope.Status != "1" && !strings.EqualFold(envelope.Message, "No transactions found") {
		return nil, fmt.Errorf("token transfers for %s: %s", address, envelope.Message)
	}

	txs := make([]model.RawTransaction, 0, len(envelope.Result))
	for _, raw := range envelope.Result {
		ts, err := strconv.ParseUint(raw.TimeStamp, 10, 64)
		if err != nil {
			c.logger.Warn("bad timestamp in transfer list", zap.String("hash", raw.Hash), zap.String("ts", raw.TimeStamp))
			continue
		}
		txs = append(txs, model.RawTransaction{
			Hash:      raw.Hash,
			Timestamp: ts,
			From:      raw.From,
			To:        raw.To,
			Value:     raw.Value,
			Input:     raw.Input,
			IsError:   raw.IsError == "1",
		})
	}
	return txs, nil
}
