package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting read from the environment.
type Config struct {
	AppEnv         string `env:"APP_ENV" envDefault:"development"`
	Port           int    `env:"PORT" envDefault:"5001"`
	PublicBasePath string `env:"PUBLIC_BASE_PATH"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`

	LineAccessToken   string `env:"LINE_ACCESS_TOKEN,required,notEmpty"`
	LineChannelSecret string `env:"LINE_SECRET,required,notEmpty"`
	LineAPIEndpoint   string `env:"LINE_API_ENDPOINT"`

	OpenAIAPIKey       string `env:"OPENAI_API_KEY,required,notEmpty"`
	OpenAIModel        string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	OpenAISystemPrompt string `env:"OPENAI_SYSTEM_PROMPT" envDefault:"你是一隻可愛小狗狗，一律用汪汪語回覆使用者詢問的問題"`

	RateSourceURL    string        `env:"RATE_SOURCE_URL" envDefault:"https://rate.bot.com.tw/xrt?Lang=zh-TW"`
	RateFetchTimeout time.Duration `env:"RATE_FETCH_TIMEOUT" envDefault:"15s"`
	RateCacheTTL     time.Duration `env:"RATE_CACHE_TTL" envDefault:"10m"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisTLS      bool   `env:"REDIS_TLS" envDefault:"false"`

	FAQPath string `env:"FAQ_PATH"`

	MetricsAddr      string `env:"METRICS_ADDR"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"linebot"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

// ListenAddr is the webhook listen address on all interfaces.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// RedisEnabled reports whether a Redis cache was configured.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
