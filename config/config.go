// Package config loads the monitor's YAML configuration through viper.
// Invalid numeric values are corrected to documented defaults with a warning
// rather than failing startup; only an unreadable file is fatal.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"signal-systemv1/internal/model"
)

// Defaults applied when the file omits or misconfigures a value.
const (
	DefaultTriggerSecond  = 30
	DefaultTriggerMinutes = 1
	DefaultFetchLimit     = 500
	DefaultTailCalc       = 300
	DefaultMaxRetries     = 3
	DefaultRetryDelaySec  = 5
	DefaultMaxWorkers     = 10
	DefaultBridgeCapacity = 256
	DefaultBacklogSize    = 32
)

// ExchangeConfig enables one exchange adapter.
type ExchangeConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	RateLimit bool `mapstructure:"rateLimit"`
}

// IndicatorConfig parameterizes the trailing-stop computation.
type IndicatorConfig struct {
	MAType        string  `mapstructure:"maType"`
	MAPeriod      int     `mapstructure:"maPeriod"`
	ATRPeriod     int     `mapstructure:"atrPeriod"`
	Multiplier    float64 `mapstructure:"multiplier"`
	UseHeikinAshi bool    `mapstructure:"useHeikinAshi"`
	PriceSource   string  `mapstructure:"priceSource"`
	AllowBuy      bool    `mapstructure:"allowBuy"`
	AllowSell     bool    `mapstructure:"allowSell"`
}

// SRConfig parameterizes the S/R zone engine.
type SRConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Timeframes        []string `mapstructure:"timeframes"`
	ShowSwings        bool     `mapstructure:"showSwings"`
	ShowPivots        bool     `mapstructure:"showPivots"`
	ShowFibonacci     bool     `mapstructure:"showFibonacci"`
	ShowOrderBlocks   bool     `mapstructure:"showOrderBlocks"`
	ShowVolumeProfile bool     `mapstructure:"showVolumeProfile"`
	ShowPsychological bool     `mapstructure:"showPsychological"`
	SwingLookback     int      `mapstructure:"swingLookback"`
	ClusterPercent    float64  `mapstructure:"clusterPercent"`
	ShowWithinPercent float64  `mapstructure:"showWithinPercent"`
	TopN              int      `mapstructure:"topN"`
	ReactionLookback  int      `mapstructure:"reactionLookback"`
	MinConfluence     int      `mapstructure:"minConfluence"`
	SortBy            string   `mapstructure:"sortBy"`
}

// TelegramConfig enables chat delivery of signal messages.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"botToken"`
	ChatID   string `mapstructure:"chatId"`
}

// RedisConfig enables the latest-signal cache and pub/sub mirror.
type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	Channel    string `mapstructure:"channel"`
	TTLMinutes int    `mapstructure:"ttlMinutes"`
}

// Config is the full monitor configuration.
type Config struct {
	LogLevel    string `mapstructure:"logLevel"`
	DataDir     string `mapstructure:"dataDir"`
	JournalPath string `mapstructure:"journalPath"`
	ListenAddr  string `mapstructure:"listenAddr"`
	MetricsAddr string `mapstructure:"metricsAddr"`

	TriggerSecond  int  `mapstructure:"triggerSecond"`
	TriggerMinutes int  `mapstructure:"triggerMinutes"`
	FetchLimit     int  `mapstructure:"fetchLimit"`
	TailCalc       int  `mapstructure:"tailCalc"`
	MaxRetries     int  `mapstructure:"maxRetries"`
	RetryDelaySec  int  `mapstructure:"retryDelaySec"`
	MaxWorkers     int  `mapstructure:"maxWorkers"`
	BridgeCapacity int  `mapstructure:"bridgeCapacity"`
	BacklogSize    int  `mapstructure:"backlogSize"`
	PersistDerived bool `mapstructure:"persistDerived"`

	Strategy  string                    `mapstructure:"strategy"`
	Exchanges map[string]ExchangeConfig `mapstructure:"exchanges"`
	Targets   []model.Target            `mapstructure:"targets"`
	Indicator IndicatorConfig           `mapstructure:"indicator"`
	SR        SRConfig                  `mapstructure:"sr"`
	Telegram  TelegramConfig            `mapstructure:"telegram"`
	Redis     RedisConfig               `mapstructure:"redis"`
}

// BindFlags registers the --config flag and returns the chosen path after
// parsing.
func BindFlags() string {
	path := pflag.String("config", "config.yaml", "path to YAML configuration")
	pflag.Parse()
	return *path
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("dataDir", "data/series")
	v.SetDefault("journalPath", "data/signals.db")
	v.SetDefault("listenAddr", ":10000")
	v.SetDefault("metricsAddr", ":9090")
	v.SetDefault("triggerSecond", DefaultTriggerSecond)
	v.SetDefault("triggerMinutes", DefaultTriggerMinutes)
	v.SetDefault("fetchLimit", DefaultFetchLimit)
	v.SetDefault("tailCalc", DefaultTailCalc)
	v.SetDefault("maxRetries", DefaultMaxRetries)
	v.SetDefault("retryDelaySec", DefaultRetryDelaySec)
	v.SetDefault("maxWorkers", DefaultMaxWorkers)
	v.SetDefault("bridgeCapacity", DefaultBridgeCapacity)
	v.SetDefault("backlogSize", DefaultBacklogSize)
	v.SetDefault("persistDerived", true)
	v.SetDefault("strategy", "utbot")
	v.SetDefault("indicator.maType", "HMA")
	v.SetDefault("indicator.maPeriod", 9)
	v.SetDefault("indicator.atrPeriod", 11)
	v.SetDefault("indicator.multiplier", 2.0)
	v.SetDefault("indicator.priceSource", "close")
	v.SetDefault("indicator.allowBuy", true)
	v.SetDefault("indicator.allowSell", true)
	v.SetDefault("sr.timeframes", []string{"15", "60", "240"})
	v.SetDefault("sr.showSwings", true)
	v.SetDefault("sr.showPsychological", true)
	v.SetDefault("sr.swingLookback", 3)
	v.SetDefault("sr.clusterPercent", 0.25)
	v.SetDefault("sr.showWithinPercent", 2.5)
	v.SetDefault("sr.topN", 8)
	v.SetDefault("sr.reactionLookback", 100)
	v.SetDefault("sr.minConfluence", 2)
	v.SetDefault("sr.sortBy", "Confluence")
	v.SetDefault("redis.channel", "signals")
	v.SetDefault("redis.ttlMinutes", 1440)
}

// normalize corrects out-of-range numeric values to their defaults with a
// warning, so a bad number in the file degrades instead of killing the
// process.
func (c *Config) normalize() {
	clampInt := func(name string, val *int, min, max, def int) {
		if *val < min || *val > max {
			slog.Warn("invalid config value, using default",
				"key", name, "value", *val, "default", def)
			*val = def
		}
	}
	clampInt("triggerSecond", &c.TriggerSecond, 0, 59, DefaultTriggerSecond)
	clampInt("triggerMinutes", &c.TriggerMinutes, 1, 1440, DefaultTriggerMinutes)
	clampInt("fetchLimit", &c.FetchLimit, 1, 1000, DefaultFetchLimit)
	clampInt("tailCalc", &c.TailCalc, 10, 5000, DefaultTailCalc)
	clampInt("maxRetries", &c.MaxRetries, 1, 20, DefaultMaxRetries)
	clampInt("retryDelaySec", &c.RetryDelaySec, 1, 300, DefaultRetryDelaySec)
	clampInt("maxWorkers", &c.MaxWorkers, 1, 100, DefaultMaxWorkers)
	clampInt("bridgeCapacity", &c.BridgeCapacity, 1, 65536, DefaultBridgeCapacity)
	clampInt("backlogSize", &c.BacklogSize, 0, 4096, DefaultBacklogSize)

	if c.Strategy == "" {
		c.Strategy = "utbot"
	}
	if c.SR.Enabled && !strings.HasSuffix(c.Strategy, "_sr") {
		c.Strategy = c.Strategy + "_sr"
	}
}

// EnabledTargets filters targets to those whose exchange is enabled too.
func (c *Config) EnabledTargets() []model.Target {
	out := make([]model.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		if !t.Enabled {
			continue
		}
		ex, ok := c.Exchanges[strings.ToLower(t.Exchange)]
		if !ok || !ex.Enabled {
			slog.Warn("target skipped, exchange not enabled", "target", t.Key())
			continue
		}
		out = append(out, t)
	}
	return out
}
