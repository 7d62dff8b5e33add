package yahoo

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"stocks2ml/utils"
)

// Constituents downloads the index membership CSV and returns the tickers
// normalized for the chart API.
func (c *Client) Constituents(ctx context.Context, csvURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create constituents request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("constituents request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("constituents request returned status %d", res.StatusCode)
	}

	return parseConstituents(res.Body)
}

// ReadTickerFile loads tickers from a local file, one per line. Blank lines
// and #-comments are skipped.
func ReadTickerFile(path string) ([]string, error) {
	if err := utils.CheckFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticker file %s: %w", path, err)
	}

	var tickers []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, utils.NormalizeTicker(line))
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("ticker file %s contains no tickers", path)
	}
	return tickers, nil
}

func parseConstituents(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read constituents header: %w", err)
	}

	symbolCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "Symbol") {
			symbolCol = i
			break
		}
	}
	if symbolCol < 0 {
		return nil, fmt.Errorf("constituents CSV has no Symbol column, header: %v", header)
	}

	var tickers []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read constituents row: %w", err)
		}
		if symbolCol >= len(record) {
			continue
		}
		ticker := utils.NormalizeTicker(record[symbolCol])
		if ticker != "" {
			tickers = append(tickers, ticker)
		}
	}

	if len(tickers) == 0 {
		return nil, fmt.Errorf("constituents CSV contains no tickers")
	}
	return tickers, nil
}
