package config

import "strings"

const (
	defaultAppEnv        = "paper"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9980"
	defaultAppLogPath    = "data/logs/stockai.log"
	defaultMarketBaseURL = "https://data.alpaca.markets/v2"
	defaultMarketKeyEnv  = "ALPACA_API_KEY"
	defaultMarketTimeout = 15
	defaultMarketCache   = 300
	defaultBrokerBaseURL = "https://paper-api.alpaca.markets/v2"
	defaultBrokerKeyEnv  = "ALPACA_API_KEY"
	defaultBrokerSecEnv  = "ALPACA_API_SECRET"
	defaultBrokerTimeout = 15
	defaultBrokerRate    = 180
	defaultBrokerRetry   = 3
	defaultModelsDir     = "models"
	defaultStorePath     = "data/db/decisions.db"
	defaultBaseQuantity  = 100
	defaultQuantityCap   = 500
	defaultMinConfidence = 60
	defaultMaxPosPct     = 0.20
	defaultCheckInterval = 60
	defaultMaxParallel   = 4
)

// defaultModelNames are the five pretrained ensemble policies shipped with
// the reference deployment.
var defaultModelNames = []string{"sac", "ppo", "a2c", "td3", "ddpg"}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Broker.applyDefaults(keys)
	c.Models.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.base_url", &m.BaseURL, defaultMarketBaseURL),
		stringFieldDefault("market.api_key_env", &m.APIKeyEnv, defaultMarketKeyEnv),
		fieldDefault{
			key:   "market.timeout_seconds",
			need:  func() bool { return m.TimeoutSeconds <= 0 },
			apply: func() { m.TimeoutSeconds = defaultMarketTimeout },
		},
		fieldDefault{
			key:   "market.cache_bars",
			need:  func() bool { return m.CacheBars <= 0 },
			apply: func() { m.CacheBars = defaultMarketCache },
		},
	)
}

func (b *BrokerConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("broker.base_url", &b.BaseURL, defaultBrokerBaseURL),
		stringFieldDefault("broker.key_env", &b.KeyEnv, defaultBrokerKeyEnv),
		stringFieldDefault("broker.secret_env", &b.SecretEnv, defaultBrokerSecEnv),
		fieldDefault{
			key:   "broker.timeout_seconds",
			need:  func() bool { return b.TimeoutSeconds <= 0 },
			apply: func() { b.TimeoutSeconds = defaultBrokerTimeout },
		},
		fieldDefault{
			key:   "broker.rate_limit_per_minute",
			need:  func() bool { return b.RateLimitPerMinute <= 0 },
			apply: func() { b.RateLimitPerMinute = defaultBrokerRate },
		},
		fieldDefault{
			key:   "broker.retry_max",
			need:  func() bool { return b.RetryMax <= 0 },
			apply: func() { b.RetryMax = defaultBrokerRetry },
		},
	)
}

func (m *ModelsConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("models.dir", &m.Dir, defaultModelsDir),
		fieldDefault{
			key:   "models.names",
			need:  func() bool { return len(m.Names) == 0 },
			apply: func() { m.Names = append([]string(nil), defaultModelNames...) },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.base_quantity",
			need:  func() bool { return t.BaseQuantity <= 0 },
			apply: func() { t.BaseQuantity = defaultBaseQuantity },
		},
		fieldDefault{
			key:   "trading.max_quantity_cap",
			need:  func() bool { return t.MaxQuantityCap <= 0 },
			apply: func() { t.MaxQuantityCap = defaultQuantityCap },
		},
		fieldDefault{
			key:   "trading.min_confidence_threshold",
			need:  func() bool { return t.MinConfidence <= 0 },
			apply: func() { t.MinConfidence = defaultMinConfidence },
		},
		fieldDefault{
			key:   "trading.max_position_pct",
			need:  func() bool { return t.MaxPositionPct <= 0 || t.MaxPositionPct > 1 },
			apply: func() { t.MaxPositionPct = defaultMaxPosPct },
		},
		fieldDefault{
			key:   "trading.check_interval_seconds",
			need:  func() bool { return t.CheckIntervalSeconds <= 0 },
			apply: func() { t.CheckIntervalSeconds = defaultCheckInterval },
		},
		fieldDefault{
			key:   "trading.max_parallel_symbols",
			need:  func() bool { return t.MaxParallelSymbols <= 0 },
			apply: func() { t.MaxParallelSymbols = defaultMaxParallel },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
