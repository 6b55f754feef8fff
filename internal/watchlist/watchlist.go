package watchlist

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"stockai/internal/logger"
)

// fileFormat is the watchlist document shape:
//
//	tickers:
//	  - AAPL
//	  - MSFT
type fileFormat struct {
	Tickers []string `yaml:"tickers"`
}

// Watchlist serves the active ticker set. With a path it reloads on
// file change; without one it is a fixed list from configuration.
type Watchlist struct {
	mu      sync.RWMutex
	tickers []string
	path    string
	watcher *fsnotify.Watcher
}

// NewStatic wraps a fixed ticker list.
func NewStatic(tickers []string) *Watchlist {
	return &Watchlist{tickers: normalize(tickers)}
}

// NewFromFile loads the list from a YAML file and watches it for
// changes. A broken rewrite keeps the last good list.
func NewFromFile(path string) (*Watchlist, error) {
	w := &Watchlist{path: path}
	if err := w.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watchlist: watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watchlist: watch %s: %w", path, err)
	}
	w.watcher = watcher
	go w.watch()

	return w, nil
}

// Tickers returns the current symbol set.
func (w *Watchlist) Tickers() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.tickers))
	copy(out, w.tickers)
	return out
}

func (w *Watchlist) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func (w *Watchlist) watch() {
	for {
		select {
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				logger.Errorf("watchlist reload failed (%s): %v", evt.Name, err)
				continue
			}
			logger.Infof("watchlist reloaded: %d tickers", len(w.Tickers()))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("watchlist watcher: %v", err)
		}
	}
}

func (w *Watchlist) reload() error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("watchlist: read %s: %w", w.path, err)
	}
	var doc fileFormat
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("watchlist: parse %s: %w", w.path, err)
	}
	tickers := normalize(doc.Tickers)
	if len(tickers) == 0 {
		return fmt.Errorf("watchlist: %s has no tickers", w.path)
	}

	w.mu.Lock()
	w.tickers = tickers
	w.mu.Unlock()
	return nil
}

// normalize uppercases, trims, dedupes and sorts so cycle order is
// deterministic.
func normalize(tickers []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
