package config

import "strings"

// Config is the top-level configuration carrier for stockai.
type Config struct {
	App     AppConfig     `toml:"app"`
	Market  MarketConfig  `toml:"market"`
	Broker  BrokerConfig  `toml:"broker"`
	Models  ModelsConfig  `toml:"models"`
	Trading TradingConfig `toml:"trading"`
	Store   StoreConfig   `toml:"store"`
	Notify  NotifyConfig  `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// MarketConfig describes the market-data gateway (bars, fundamentals,
// insider trades).
type MarketConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CacheBars      int    `toml:"cache_bars"`
}

// BrokerConfig describes the brokerage gateway. Key and secret are read from
// the named environment variables, never stored in the config file.
type BrokerConfig struct {
	BaseURL            string `toml:"base_url"`
	KeyEnv             string `toml:"key_env"`
	SecretEnv          string `toml:"secret_env"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
	RetryMax           int    `toml:"retry_max"`
	DryRun             bool   `toml:"dry_run"`
}

// ModelsConfig locates the pretrained ensemble policies. Each name maps
// to <dir>/<name>.onnx.
type ModelsConfig struct {
	Dir         string   `toml:"dir"`
	Names       []string `toml:"names"`
	LibraryPath string   `toml:"onnx_library_path"`
}

type TradingConfig struct {
	Tickers              []string `toml:"tickers"`
	WatchlistPath        string   `toml:"watchlist_path"`
	BaseQuantity         int      `toml:"base_quantity"`
	MaxQuantityCap       int      `toml:"max_quantity_cap"`
	MinConfidence        float64  `toml:"min_confidence_threshold"`
	MaxPositionPct       float64  `toml:"max_position_pct"`
	CheckIntervalSeconds int      `toml:"check_interval_seconds"`
	MaxParallelSymbols   int      `toml:"max_parallel_symbols"`
	IgnoreMarketHours    bool     `toml:"ignore_market_hours"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// keySet tracks config paths explicitly present in the file, so defaults
// never override an intentional zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
