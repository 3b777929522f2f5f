package tradier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/xhhuango/json"

	"github.com/bcdannyboy/stochsim/models"
)

const DefaultBaseURL = "https://api.tradier.com"

// ErrUpstreamUnavailable wraps every transport, status and decoding failure
// talking to the market data API.
var ErrUpstreamUnavailable = errors.New("tradier: upstream unavailable")

type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetQuotes fetches bars for symbol between start and end (YYYY-MM-DD) at
// the given interval (daily, weekly, monthly).
func (c *Client) GetQuotes(ctx context.Context, symbol, start, end, interval string) (*QuoteHistory, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("session_filter", "all")
	apiURL := strings.TrimRight(base, "/") + "/v1/markets/history?" + q.Encode()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	r.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	r.Header.Add("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response data: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstreamUnavailable, resp.Status, strings.TrimSpace(string(responseData)))
	}

	quoteHistory := &QuoteHistory{}
	if err := json.Unmarshal(responseData, quoteHistory); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response data: %v", ErrUpstreamUnavailable, err)
	}

	return quoteHistory, nil
}

// DailyBars returns daily OHLC bars for symbol in chronological order.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	history, err := c.GetQuotes(ctx, symbol, start.Format(time.DateOnly), end.Format(time.DateOnly), "daily")
	if err != nil {
		return nil, err
	}

	days := history.History.Day
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	bars := make([]models.Bar, len(days))
	for i, d := range days {
		bars[i] = models.Bar{Open: d.Open, High: d.High, Low: d.Low, Close: d.Close}
	}
	return bars, nil
}

// ClosingPrices returns daily closes for symbol in chronological order.
func (c *Client) ClosingPrices(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	bars, err := c.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	return models.Closes(bars), nil
}
