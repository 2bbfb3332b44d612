package source

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"revenueScope/internal/model"
)

var ratioDenominator = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ChainClient wraps go-ethereum RPC for receipt fetches and ratio-update
// log scans.
type ChainClient struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewChainClient creates a chain client from the RPC URL.
func NewChainClient(ctx context.Context, rpcURL string) (*ChainClient, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &ChainClient{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *ChainClient) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Receipt returns the ordered log list of a transaction.
func (c *ChainClient) Receipt(ctx context.Context, txHash string) (model.Receipt, error) {
	rcpt, err := c.ethClient.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if err == ethereum.NotFound {
			return model.Receipt{}, fmt.Errorf("receipt %s: %w", txHash, model.ErrNotFound)
		}
		return model.Receipt{}, fmt.Errorf("receipt %s: %w", txHash, err)
	}

	logs := make([]model.LogEntry, 0, len(rcpt.Logs))
	for _, entry := range rcpt.Logs {
		topics := make([]string, 0, len(entry.Topics))
		for _, topic := range entry.Topics {
			topics = append(topics, topic.Hex())
		}
		logs = append(logs, model.LogEntry{
			Address: entry.Address.Hex(),
			Topics:  topics,
			Data:    hexutil.Encode(entry.Data),
		})
	}

	return model.Receipt{TxHash: txHash, Logs: logs}, nil
}

// BlockTimestamp returns a block's timestamp, using an in-memory cache.
func (c *ChainClient) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// RatioScanner reads the staked token's ratio-update log history from
// the chain. The upstream log is append-only and ascending.
type RatioScanner struct {
	client    *ChainClient
	contract  common.Address
	topic0    common.Hash
	fromBlock uint64
}

func NewRatioScanner(client *ChainClient, contract, topic0 string, fromBlock uint64) (*RatioScanner, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid ratio contract address: %s", contract)
	}
	topicBytes, err := hexutil.Decode(topic0)
	if err != nil || len(topicBytes) != 32 {
		return nil, fmt.Errorf("invalid ratio topic0: %s", topic0)
	}
	return &RatioScanner{
		client:    client,
		contract:  common.HexToAddress(contract),
		topic0:    common.BytesToHash(topicBytes),
		fromBlock: fromBlock,
	}, nil
}

// RatioUpdates returns the full update history, ascending by timestamp.
// The ratio word is an 1e18-scaled uint256.
func (s *RatioScanner) RatioUpdates(ctx context.Context) ([]model.RatioUpdate, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(s.fromBlock),
		Addresses: []common.Address{s.contract},
		Topics:    [][]common.Hash{{s.topic0}},
	}
	logs, err := s.client.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ratio update logs: %w", err)
	}

	updates := make([]model.RatioUpdate, 0, len(logs))
	for _, entry := range logs {
		if len(entry.Data) < 32 {
			continue
		}
		raw := new(big.Int).SetBytes(entry.Data[:32])
		ts, err := s.client.BlockTimestamp(ctx, entry.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("block timestamp %d: %w", entry.BlockNumber, err)
		}
		updates = append(updates, model.RatioUpdate{
			Timestamp: ts,
			Ratio:     new(big.Rat).SetFrac(raw, ratioDenominator),
			TxHash:    entry.TxHash.Hex(),
		})
	}
	return updates, nil
}
