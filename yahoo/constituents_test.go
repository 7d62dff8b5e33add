package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks2ml/model"
)

func TestParseConstituents(t *testing.T) {
	csv := "Symbol,Name,Sector\nAAPL,Apple Inc.,Information Technology\nBRK.B,Berkshire Hathaway,Financials\nmsft,Microsoft,Information Technology\n"

	tickers, err := parseConstituents(strings.NewReader(csv))
	require.NoError(t, err)

	// Tickers come back normalized for the chart API.
	assert.Equal(t, []string{"AAPL", "BRK-B", "MSFT"}, tickers)
}

func TestParseConstituentsMissingSymbolColumn(t *testing.T) {
	csv := "Ticker,Name\nAAPL,Apple Inc.\n"

	_, err := parseConstituents(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestParseConstituentsNoRows(t *testing.T) {
	_, err := parseConstituents(strings.NewReader("Symbol,Name\n"))
	assert.Error(t, err)
}

func TestConstituentsEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Symbol,Name\nAAPL,Apple Inc.\nGOOGL,Alphabet\n")
	}))
	defer server.Close()

	client := NewClient(&model.FetchConfig{
		ChartBaseURL: server.URL,
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
	})

	tickers, err := client.Constituents(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, tickers)
}

func TestReadTickerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickers.txt")
	require.NoError(t, os.WriteFile(path, []byte("# watchlist\naapl\nBRK.B\n\nMSFT\n"), 0644))

	tickers, err := ReadTickerFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "BRK-B", "MSFT"}, tickers)
}

func TestReadTickerFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickers.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n"), 0644))

	_, err := ReadTickerFile(path)
	assert.Error(t, err)
}
