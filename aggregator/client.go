// Package aggregator obtains swap routes from a third-party aggregator
// HTTP API and executes them on-chain with the same approve-then-act
// sequencing as the contract gateway.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	chicks "github.com/chicksfi/chicks-sdk"
)

// NativePlaceholder is the pseudo-address aggregators use for the chain's
// native asset. A zero input address is normalized to this before any
// request goes out.
const NativePlaceholder = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Request defaults.
const (
	defaultTimeout = 30 * time.Second

	// envelopeOK is the success code aggregators embed in otherwise-200
	// JSON bodies.
	envelopeOK = 200
)

// APIError is a failure reported by the aggregator, either as a non-2xx
// response or as a non-success code inside a 200 body.
type APIError struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aggregator error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

// Config configures an aggregator client.
type Config struct {
	// BaseURL is the aggregator API root, e.g.
	// "https://open-api.openocean.finance/v3/avax".
	BaseURL string

	// Router is the aggregator's router contract, the spender for
	// pre-swap approvals.
	Router common.Address

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client

	// Logger receives boundary failures before they are re-thrown.
	Logger *zerolog.Logger
}

// Client is a swap-aggregator REST client.
type Client struct {
	baseURL    string
	router     common.Address
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates an aggregator client. config must carry a BaseURL.
func New(config *Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		router:     config.Router,
		httpClient: httpClient,
		log:        log,
	}
}

// Router returns the router contract swaps are submitted to.
func (c *Client) Router() common.Address {
	return c.router
}

// envelope is the aggregator's JSON response shape: a numeric status code
// and a data payload.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// quoteData is the route information returned by the quote endpoint.
type quoteData struct {
	InAmount    string          `json:"inAmount"`
	OutAmount   string          `json:"outAmount"`
	PriceImpact string          `json:"price_impact"`
	Path        json.RawMessage `json:"path"`
}

// SwapTransaction is the executable form of a route: a target router and
// pre-encoded calldata.
type SwapTransaction struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}

// swapData is the raw build-endpoint payload.
type swapData struct {
	To           string `json:"to"`
	Data         string `json:"data"`
	Value        string `json:"value"`
	EstimatedGas uint64 `json:"estimatedGas"`
}

// GetQuote fetches the best route for swapping amount of tokenIn into
// tokenOut. A zero tokenIn/tokenOut address means the native asset and is
// normalized to the aggregator's placeholder.
func (c *Client) GetQuote(ctx context.Context, tokenIn, tokenOut common.Address, amount *big.Int) (*chicks.QuoteResult, error) {
	params := url.Values{}
	params.Set("inTokenAddress", normalizeToken(tokenIn))
	params.Set("outTokenAddress", normalizeToken(tokenOut))
	params.Set("amount", amount.String())

	var data quoteData
	if err := c.get(ctx, "/quote", params, &data); err != nil {
		return nil, err
	}

	inAmount, ok := new(big.Int).SetString(data.InAmount, 10)
	if !ok {
		return nil, fmt.Errorf("aggregator returned invalid inAmount %q", data.InAmount)
	}
	outAmount, ok := new(big.Int).SetString(data.OutAmount, 10)
	if !ok {
		return nil, fmt.Errorf("aggregator returned invalid outAmount %q", data.OutAmount)
	}

	return &chicks.QuoteResult{
		InAmount:    inAmount,
		OutAmount:   outAmount,
		PriceImpact: data.PriceImpact,
		Route:       data.Path,
	}, nil
}

// BuildTransaction converts a previously obtained route into raw calldata
// and a target router address. slippageBps is the slippage tolerance in
// basis points (percentage × 100); deadline is a unix timestamp after
// which the swap must not execute.
func (c *Client) BuildTransaction(ctx context.Context, route *chicks.QuoteResult, tokenIn, tokenOut common.Address, sender common.Address, slippageBps int, deadline int64) (*SwapTransaction, error) {
	body, err := json.Marshal(map[string]interface{}{
		"inTokenAddress":  normalizeToken(tokenIn),
		"outTokenAddress": normalizeToken(tokenOut),
		"amount":          route.InAmount.String(),
		"account":         sender.Hex(),
		"slippage":        slippageBps,
		"deadline":        deadline,
		"route":           route.Route,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	var data swapData
	if err := c.post(ctx, "/swap", body, &data); err != nil {
		return nil, err
	}

	if !common.IsHexAddress(data.To) {
		return nil, fmt.Errorf("aggregator returned invalid router address %q", data.To)
	}
	calldata := common.FromHex(data.Data)
	if len(calldata) == 0 {
		return nil, fmt.Errorf("aggregator returned empty calldata")
	}
	value := new(big.Int)
	if data.Value != "" {
		if _, ok := value.SetString(data.Value, 10); !ok {
			return nil, fmt.Errorf("aggregator returned invalid value %q", data.Value)
		}
	}

	return &SwapTransaction{
		To:       common.HexToAddress(data.To),
		Data:     calldata,
		Value:    value,
		GasLimit: data.EstimatedGas,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aggregator request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read aggregator response: %w", err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(responseBody, &env); jsonErr != nil {
		if resp.StatusCode != http.StatusOK {
			return c.fail(&APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(responseBody))})
		}
		return fmt.Errorf("failed to decode aggregator response: %w", jsonErr)
	}

	// Non-2xx responses and non-success envelope codes inside a 200 body
	// are both failures.
	if resp.StatusCode != http.StatusOK || env.Code != envelopeOK {
		return c.fail(&APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message})
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode aggregator data: %w", err)
	}
	return nil
}

func (c *Client) fail(apiErr *APIError) error {
	c.log.Warn().Int("status", apiErr.Status).Int("code", apiErr.Code).Str("message", apiErr.Message).
		Msg("aggregator request rejected")
	return chicks.NewError(chicks.ErrCodeAggregator, apiErr.Message, apiErr)
}

func normalizeToken(token common.Address) string {
	if token == (common.Address{}) {
		return NativePlaceholder
	}
	return token.Hex()
}

// IsNative reports whether token denotes the chain's native asset.
func IsNative(token common.Address) bool {
	return token == (common.Address{}) || strings.EqualFold(token.Hex(), NativePlaceholder)
}
