package watchlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticNormalizesTickers(t *testing.T) {
	w := NewStatic([]string{" aapl", "MSFT", "aapl", "", "tsla "})
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, w.Tickers())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers:\n  - aapl\n  - msft\n"), 0o644))

	w, err := NewFromFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, []string{"AAPL", "MSFT"}, w.Tickers())
}

func TestLoadFromFileRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: []\n"), 0o644))

	_, err := NewFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tickers")
}

func TestReloadOnRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [AAPL]\n"), 0o644))

	w, err := NewFromFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("tickers: [AAPL, NVDA]\n"), 0o644))

	assert.Eventually(t, func() bool {
		return len(w.Tickers()) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestBrokenRewriteKeepsLastGoodList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [AAPL]\n"), 0o644))

	w, err := NewFromFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte(":: not yaml ::"), 0o644))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"AAPL"}, w.Tickers())
}
