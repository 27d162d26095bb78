package aggregator

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chicks "github.com/chicksfi/chicks-sdk"
)

var (
	tokenIn  = common.HexToAddress("0xAAA0000000000000000000000000000000000002")
	tokenOut = common.HexToAddress("0xAAA0000000000000000000000000000000000003")
	router   = common.HexToAddress("0xBBB0000000000000000000000000000000000001")
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := New(&Config{BaseURL: server.URL, Router: router})
	return client, server
}

func TestGetQuote(t *testing.T) {
	var gotQuery map[string]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		gotQuery = map[string]string{
			"inTokenAddress":  r.URL.Query().Get("inTokenAddress"),
			"outTokenAddress": r.URL.Query().Get("outTokenAddress"),
			"amount":          r.URL.Query().Get("amount"),
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{
				"inAmount":     "1000000",
				"outAmount":    "987654",
				"price_impact": "0.12%",
				"path":         json.RawMessage(`{"hops":2}`),
			},
		})
	}))
	defer server.Close()

	quote, err := client.GetQuote(context.Background(), tokenIn, tokenOut, big.NewInt(1_000_000))
	require.NoError(t, err)

	assert.Equal(t, tokenIn.Hex(), gotQuery["inTokenAddress"])
	assert.Equal(t, tokenOut.Hex(), gotQuery["outTokenAddress"])
	assert.Equal(t, "1000000", gotQuery["amount"])

	assert.Equal(t, big.NewInt(1_000_000), quote.InAmount)
	assert.Equal(t, big.NewInt(987_654), quote.OutAmount)
	assert.Equal(t, "0.12%", quote.PriceImpact)
	assert.JSONEq(t, `{"hops":2}`, string(quote.Route))
}

func TestGetQuoteNormalizesNativeAsset(t *testing.T) {
	var gotIn string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIn = r.URL.Query().Get("inTokenAddress")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{"inAmount": "1", "outAmount": "1"},
		})
	}))
	defer server.Close()

	_, err := client.GetQuote(context.Background(), common.Address{}, tokenOut, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, NativePlaceholder, gotIn)
}

func TestGetQuoteUpstreamHTTPError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := client.GetQuote(context.Background(), tokenIn, tokenOut, big.NewInt(1))
	require.Error(t, err)
	assert.True(t, chicks.IsCode(err, chicks.ErrCodeAggregator))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "rate limited", apiErr.Message)
}

func TestGetQuoteEmbeddedFailureCode(t *testing.T) {
	// A non-success code inside an otherwise-200 body is still a failure.
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    500,
			"message": "no route found",
		})
	}))
	defer server.Close()

	_, err := client.GetQuote(context.Background(), tokenIn, tokenOut, big.NewInt(1))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, 500, apiErr.Code)
	assert.Equal(t, "no route found", apiErr.Message)
}

func TestBuildTransaction(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	var gotBody map[string]interface{}
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap", r.URL.Path)
		require.Equal(t, "POST", r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{
				"to":           router.Hex(),
				"data":         "0xdeadbeef",
				"value":        "0",
				"estimatedGas": 210000,
			},
		})
	}))
	defer server.Close()

	route := &chicks.QuoteResult{
		InAmount:  big.NewInt(1_000_000),
		OutAmount: big.NewInt(987_654),
		Route:     json.RawMessage(`{"hops":2}`),
	}
	tx, err := client.BuildTransaction(context.Background(), route, tokenIn, tokenOut, sender, 50, 1_700_000_000)
	require.NoError(t, err)

	assert.Equal(t, sender.Hex(), gotBody["account"])
	assert.Equal(t, float64(50), gotBody["slippage"])
	assert.Equal(t, float64(1_700_000_000), gotBody["deadline"])
	assert.Equal(t, "1000000", gotBody["amount"])

	assert.Equal(t, router, tx.To)
	assert.Equal(t, common.FromHex("0xdeadbeef"), tx.Data)
	assert.Equal(t, uint64(210_000), tx.GasLimit)
	assert.Zero(t, tx.Value.Sign())
}

func TestBuildTransactionRejectsBadRouter(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{"to": "not-an-address", "data": "0x01"},
		})
	}))
	defer server.Close()

	route := &chicks.QuoteResult{InAmount: big.NewInt(1)}
	_, err := client.BuildTransaction(context.Background(), route, tokenIn, tokenOut, common.Address{}, 50, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router address")
}
