package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"stocks2ml/model"
)

// Client fetches daily close prices from the Yahoo Finance v8 chart API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(cfg *model.FetchConfig) *Client {
	return &Client{
		baseURL:   cfg.ChartBaseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// chartResponse mirrors the subset of the v8/finance/chart payload we need.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns the daily closes for symbol in [start, end). Days Yahoo
// reports with a null close come back as NaN so that gaps stay visible to
// the missing-data handling downstream.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]model.ClosePrice, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)))
	if err != nil {
		return nil, fmt.Errorf("invalid chart url for %s: %w", symbol, err)
	}
	q := u.Query()
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed for %s: %w", symbol, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("chart request for %s returned status %d", symbol, res.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error for %s: %s (%s)",
			symbol, payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response for %s contains no quote data", symbol)
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("chart response for %s has %d closes for %d timestamps",
			symbol, len(closes), len(result.Timestamp))
	}

	prices := make([]model.ClosePrice, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closeVal := math.NaN()
		if closes[i] != nil {
			closeVal = *closes[i]
		}
		day := time.Unix(ts, 0).UTC()
		prices = append(prices, model.ClosePrice{
			Symbol: symbol,
			Date:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Close:  closeVal,
		})
	}

	return prices, nil
}
