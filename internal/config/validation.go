package config

import (
	"fmt"
	"os"
	"strings"
)

// validate enforces the startup invariants. Anything wrong here is fatal:
// the process refuses to start rather than trade in an undefined state.
func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Broker.validate(); err != nil {
		return err
	}
	if err := c.Models.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if len(t.Tickers) == 0 && strings.TrimSpace(t.WatchlistPath) == "" {
		return fmt.Errorf("trading.tickers or trading.watchlist_path is required")
	}
	seen := make(map[string]struct{}, len(t.Tickers))
	for _, sym := range t.Tickers {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return fmt.Errorf("trading.tickers contains an empty symbol")
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("trading.tickers contains duplicate symbol %s", sym)
		}
		seen[sym] = struct{}{}
	}
	if t.MinConfidence < 0 || t.MinConfidence > 100 {
		return fmt.Errorf("trading.min_confidence_threshold must be within [0,100]")
	}
	if t.MaxPositionPct <= 0 || t.MaxPositionPct > 1 {
		return fmt.Errorf("trading.max_position_pct must be within (0,1]")
	}
	if t.MaxQuantityCap < t.BaseQuantity {
		return fmt.Errorf("trading.max_quantity_cap (%d) must be >= trading.base_quantity (%d)",
			t.MaxQuantityCap, t.BaseQuantity)
	}
	if t.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("trading.check_interval_seconds must be > 0")
	}
	return nil
}

func (b *BrokerConfig) validate() error {
	if b.DryRun {
		return nil
	}
	if strings.TrimSpace(b.KeyEnv) == "" || strings.TrimSpace(b.SecretEnv) == "" {
		return fmt.Errorf("broker.key_env and broker.secret_env are required when dry_run is false")
	}
	if os.Getenv(b.KeyEnv) == "" || os.Getenv(b.SecretEnv) == "" {
		return fmt.Errorf("brokerage credentials missing: set %s and %s (or enable broker.dry_run)",
			b.KeyEnv, b.SecretEnv)
	}
	return nil
}

func (m *ModelsConfig) validate() error {
	if len(m.Names) == 0 {
		return fmt.Errorf("models.names requires at least one policy name")
	}
	for _, name := range m.Names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("models.names contains an empty entry")
		}
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if tg.Enabled && (strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "") {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
