// Package market looks up spot prices for the /price command. It talks to
// the CoinGecko simple-price endpoint over plain HTTP; no API key is needed
// for the public tier.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	coingeckoBaseURL        = "https://api.coingecko.com/api/v3/simple/price"
	coingeckoDefaultTimeout = 10 * time.Second
	vsCurrency              = "usd"
)

var (
	// ErrUnknownSymbol is returned when the symbol maps to no listed coin.
	ErrUnknownSymbol = errors.New("unknown coin symbol")

	errUnexpectedStatus = errors.New("coingecko unexpected status")
	errRateLimited      = errors.New("coingecko rate limited")
)

// Symbols the /price command accepts without a full id. CoinGecko keys
// quotes by coin id, not ticker.
var symbolToID = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"sol":  "solana",
	"bnb":  "binancecoin",
	"xrp":  "ripple",
	"ada":  "cardano",
	"doge": "dogecoin",
	"ton":  "the-open-network",
	"dot":  "polkadot",
	"link": "chainlink",
	"pepe": "pepe",
	"shib": "shiba-inu",
}

// Quote is one spot price with its 24h change.
type Quote struct {
	Symbol    string
	ID        string
	PriceUSD  float64
	Change24h float64
}

// Client fetches quotes from CoinGecko.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds the market client options.
type Config struct {
	Timeout time.Duration
}

// NewClient creates a CoinGecko client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = coingeckoDefaultTimeout
	}
	return &Client{
		baseURL:    coingeckoBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Price returns the USD quote for a ticker symbol such as "btc" or "PEPE".
// Symbols outside the known map are tried verbatim as a CoinGecko coin id.
func (c *Client) Price(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrUnknownSymbol
	}
	id, ok := symbolToID[symbol]
	if !ok {
		id = symbol
	}

	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", vsCurrency)
	params.Set("include_24hr_change", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create coingecko request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("coingecko request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("read coingecko response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Quote{}, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	return parseQuote(body, symbol, id)
}

func parseQuote(body []byte, symbol, id string) (Quote, error) {
	var parsed map[string]map[string]float64
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Quote{}, fmt.Errorf("parse coingecko json: %w", err)
	}

	entry, ok := parsed[id]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	price, ok := entry[vsCurrency]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	return Quote{
		Symbol:    strings.ToUpper(symbol),
		ID:        id,
		PriceUSD:  price,
		Change24h: entry[vsCurrency+"_24h_change"],
	}, nil
}
