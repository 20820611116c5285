package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFile     string          `mapstructure:"log_file"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	CCXT        CCXTConfig      `mapstructure:"ccxt"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Arbitrage   ArbitrageConfig `mapstructure:"arbitrage"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CCXTConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key" json:"-" yaml:"-"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

// ExchangeConfig describes one exchange and how it names its pairs.
type ExchangeConfig struct {
	Name      string            `mapstructure:"name"`
	CCXTID    string            `mapstructure:"ccxt_id"`
	Separator string            `mapstructure:"separator"`
	Aliases   map[string]string `mapstructure:"aliases"`
	Inverse   bool              `mapstructure:"inverse"`
	TakerFee  float64           `mapstructure:"taker_fee"`
}

// ArbitrageConfig holds the tracked universe. Markets[0] is the low-price
// reference market. TakerFee and Slippage are exposed for display only.
type ArbitrageConfig struct {
	Symbols           []string         `mapstructure:"symbols"`
	Markets           []string         `mapstructure:"markets"`
	Exchanges         []ExchangeConfig `mapstructure:"exchanges"`
	Slippage          float64          `mapstructure:"slippage"`
	RefreshInterval   time.Duration    `mapstructure:"refresh_interval"`
	PriceCacheTTL     time.Duration    `mapstructure:"price_cache_ttl"`
	LowPriceThreshold float64          `mapstructure:"low_price_threshold"`
	AlertThresholdPct float64          `mapstructure:"alert_threshold_pct"`
	RequestsPerSecond float64          `mapstructure:"requests_per_second"`
	// BreakerFailures consecutive failed fetches pause an exchange for
	// BreakerCooldown.
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// ReferenceMarket returns the first configured market.
func (a ArbitrageConfig) ReferenceMarket() string {
	if len(a.Markets) == 0 {
		return ""
	}
	return a.Markets[0]
}

// ExchangeNames returns the configured exchange names in order.
func (a ArbitrageConfig) ExchangeNames() []string {
	names := make([]string, 0, len(a.Exchanges))
	for _, ex := range a.Exchanges {
		names = append(names, ex.Name)
	}
	return names
}

func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("llm.api_key", "GROQ_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GROQ_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	normalize(&config.Arbitrage)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the calculator cannot run without.
func (c *Config) Validate() error {
	a := c.Arbitrage
	if len(a.Symbols) == 0 {
		return errors.New("arbitrage.symbols must contain at least one symbol")
	}
	if len(a.Markets) == 0 {
		return errors.New("arbitrage.markets must contain at least one market")
	}
	if len(a.Exchanges) < 2 {
		return fmt.Errorf("arbitrage.exchanges needs at least two exchanges, got %d", len(a.Exchanges))
	}
	seen := make(map[string]bool, len(a.Exchanges))
	for _, ex := range a.Exchanges {
		if ex.Name == "" {
			return errors.New("arbitrage.exchanges entries need a name")
		}
		if seen[ex.Name] {
			return fmt.Errorf("exchange %q configured twice", ex.Name)
		}
		seen[ex.Name] = true
	}
	if a.RefreshInterval <= 0 {
		return fmt.Errorf("arbitrage.refresh_interval must be positive, got %s", a.RefreshInterval)
	}
	return nil
}

// normalize upper-cases symbols, markets and aliases and fills CCXT ids.
func normalize(a *ArbitrageConfig) {
	for i, s := range a.Symbols {
		a.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	for i, m := range a.Markets {
		a.Markets[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	for i := range a.Exchanges {
		ex := &a.Exchanges[i]
		ex.Name = strings.ToLower(strings.TrimSpace(ex.Name))
		if ex.CCXTID == "" {
			ex.CCXTID = ex.Name
		}
		if len(ex.Aliases) > 0 {
			aliases := make(map[string]string, len(ex.Aliases))
			for k, v := range ex.Aliases {
				aliases[strings.ToUpper(k)] = strings.ToUpper(v)
			}
			ex.Aliases = aliases
		}
	}
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "cryptogap")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("ccxt.service_url", "http://localhost:3001")
	viper.SetDefault("ccxt.timeout", 30)

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)

	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.model", "llama-3.3-70b-versatile")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 500)
	viper.SetDefault("llm.timeout", 30)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "")
	viper.SetDefault("telemetry.service_name", "cryptogap-go")
	viper.SetDefault("telemetry.service_version", "1.0.0")

	viper.SetDefault("arbitrage.symbols", []string{"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "DOT", "LINK", "LTC"})
	viper.SetDefault("arbitrage.markets", []string{"USDT", "BTC"})
	viper.SetDefault("arbitrage.exchanges", []map[string]interface{}{
		{"name": "binance", "ccxt_id": "binance", "separator": "/", "inverse": true, "taker_fee": 0.001},
		{"name": "kraken", "ccxt_id": "kraken", "separator": "/", "inverse": true, "taker_fee": 0.0026,
			"aliases": map[string]string{"BTC": "XBT"}},
	})
	viper.SetDefault("arbitrage.slippage", 0.002)
	viper.SetDefault("arbitrage.refresh_interval", "60s")
	viper.SetDefault("arbitrage.price_cache_ttl", "10s")
	viper.SetDefault("arbitrage.low_price_threshold", 1.0)
	viper.SetDefault("arbitrage.alert_threshold_pct", 1.0)
	viper.SetDefault("arbitrage.requests_per_second", 5.0)
	viper.SetDefault("arbitrage.breaker_failures", 5)
	viper.SetDefault("arbitrage.breaker_cooldown", "2m")
}
