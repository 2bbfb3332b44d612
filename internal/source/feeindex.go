package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Query modes of the fee aggregation service. Protocol-only is the
// preferred figure; total is the fallback.
const (
	queryProtocolFees = "protocolFeesByDateRange"
	queryTotalFees    = "dateRangeTotalFees"
)

// FeeIndexClient queries the fee aggregation service over HTTP.
type FeeIndexClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFeeIndexClient(baseURL string, logger *zap.Logger) *FeeIndexClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeIndexClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type feeIndexEnvelope struct {
	Success bool             `json:"success"`
	Error   string           `json:"error"`
	Data    []feeIndexResult `json:"data"`
}

type feeIndexResult struct {
	ID      string  `json:"id"`
	Result  float64 `json:"result"`
	Success bool    `json:"success"`
}

// ProtocolFees queries protocol-only fees for the window.
func (c *FeeIndexClient) ProtocolFees(ctx context.Context, start, end time.Time) ([]NetworkFees, error) {
	return c.query(ctx, queryProtocolFees, start, end)
}

// TotalFees queries total fees for the window.
func (c *FeeIndexClient) TotalFees(ctx context.Context, start, end time.Time) ([]NetworkFees, error) {
	return c.query(ctx, queryTotalFees, start, end)
}

func (c *FeeIndexClient) query(ctx context.Context, mode string, start, end time.Time) ([]NetworkFees, error) {
	params := url.Values{}
	params.Set("query", mode)
	params.Set("startDate", start.UTC().Format("2006-01-02"))
	params.Set("endDate", end.UTC().Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/execute?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fee query %s: %w", mode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fee query %s: status %d", mode, resp.StatusCode)
	}

	var envelope feeIndexEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode fee response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("fee query %s: %s", mode, envelope.Error)
	}

	results := make([]NetworkFees, 0, len(envelope.Data))
	for _, entry := range envelope.Data {
		if !entry.Success {
			c.logger.Warn("fee index network failed", zap.String("network", entry.ID), zap.String("mode", mode))
		}
		results = append(results, NetworkFees{
			Network: entry.ID,
			Value:   entry.Result,
			OK:      entry.Success,
		})
	}
	return results, nil
}
