package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Databases DatabasesConfig
	Seed      SeedConfig
	LLM       LLMConfig
	Agent     AgentConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Seed.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Databases.validate(cfg.Seed.Platforms); err != nil {
		return nil, err
	}
	if err := cfg.LLM.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"QUICKDEALS_APP_ENV" default:"dev"`
	Port         string   `envconfig:"QUICKDEALS_APP_PORT" default:"8501"`
	Title        string   `envconfig:"QUICKDEALS_APP_TITLE" default:"Quick Commerce Deals"`
	LogLevel     string   `envconfig:"QUICKDEALS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"QUICKDEALS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"QUICKDEALS_CORS_ORIGINS" default:"http://localhost:8501"`

	// DocsDir holds api.yaml for the /docs reference page.
	DocsDir string `envconfig:"QUICKDEALS_DOCS_DIR" default:"api/openapi"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DatabasesConfig struct {
	Specs           DatabaseSpecs `envconfig:"QUICKDEALS_DATABASES" default:"zepto=zepto.db:Zepto;blinkit=blinkit.db:Blinkit;instamart=instasmart.db:Instamart"`
	MaxOpenConns    int           `envconfig:"QUICKDEALS_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"QUICKDEALS_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"QUICKDEALS_DB_CONN_MAX_LIFETIME" default:"1h"`
}

func (d DatabasesConfig) validate(platforms []string) error {
	known := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		known[p] = true
	}
	for _, spec := range d.Specs {
		for _, p := range spec.Platforms {
			if !known[p] {
				return fmt.Errorf("database %q references unknown platform %q", spec.Name, p)
			}
		}
	}
	return nil
}

type SeedConfig struct {
	Enabled   bool     `envconfig:"QUICKDEALS_SEED_ON_START" default:"true"`
	Platforms []string `envconfig:"QUICKDEALS_SEED_PLATFORMS" default:"Blinkit,Zepto,Instamart,BigBasket Now"`
	Products  []string `envconfig:"QUICKDEALS_SEED_PRODUCTS" default:"Onion,Tomato,Apple,Milk"`
	PriceMin  float64  `envconfig:"QUICKDEALS_SEED_PRICE_MIN" default:"10"`
	PriceMax  float64  `envconfig:"QUICKDEALS_SEED_PRICE_MAX" default:"100"`
	Discounts []int    `envconfig:"QUICKDEALS_SEED_DISCOUNTS" default:"0,10,20,30"`

	// RandSeed pins the price generator; zero seeds from the clock.
	RandSeed uint64 `envconfig:"QUICKDEALS_SEED_RAND_SEED" default:"0"`
}

func (s SeedConfig) validate() error {
	if len(s.Platforms) == 0 {
		return fmt.Errorf("%s must list at least one platform", EnvSeedPlatforms)
	}
	if len(s.Products) == 0 {
		return fmt.Errorf("%s must list at least one product", EnvSeedProducts)
	}
	if s.PriceMin < 0 || s.PriceMax < s.PriceMin {
		return fmt.Errorf("invalid price range [%v, %v]", s.PriceMin, s.PriceMax)
	}
	if len(s.Discounts) == 0 {
		return fmt.Errorf("%s must list at least one discount", EnvSeedDiscounts)
	}
	for _, d := range s.Discounts {
		if d < 0 || d > 100 {
			return fmt.Errorf("discount %d outside 0..100", d)
		}
	}
	return nil
}

type LLMConfig struct {
	Provider    string        `envconfig:"QUICKDEALS_LLM_PROVIDER" default:"gemini"`
	Model       string        `envconfig:"QUICKDEALS_LLM_MODEL"`
	APIKey      string        `envconfig:"QUICKDEALS_LLM_API_KEY"`
	BaseURL     string        `envconfig:"QUICKDEALS_LLM_BASE_URL"`
	Temperature float64       `envconfig:"QUICKDEALS_LLM_TEMPERATURE" default:"0"`
	Timeout     time.Duration `envconfig:"QUICKDEALS_LLM_TIMEOUT" default:"0"`
}

func (l *LLMConfig) resolve() error {
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	defaults, ok := providerDefaults[l.Provider]
	if !ok {
		return fmt.Errorf("unsupported llm provider %q", l.Provider)
	}
	if l.Model == "" {
		l.Model = defaults.model
	}
	if l.APIKey == "" {
		for _, key := range defaults.keyEnvs {
			if v := os.Getenv(key); v != "" {
				l.APIKey = v
				break
			}
		}
	}
	if l.APIKey == "" {
		return fmt.Errorf("either %s or %s is required", EnvLLMAPIKey, strings.Join(defaults.keyEnvs, ", "))
	}
	return nil
}

type AgentConfig struct {
	MaxTurns          int `envconfig:"QUICKDEALS_AGENT_MAX_TURNS" default:"15"`
	TopK              int `envconfig:"QUICKDEALS_AGENT_TOP_K" default:"10"`
	MaxRows           int `envconfig:"QUICKDEALS_AGENT_MAX_ROWS" default:"50"`
	SampleRows        int `envconfig:"QUICKDEALS_AGENT_SAMPLE_ROWS" default:"3"`
	MaxQuestionLength int `envconfig:"QUICKDEALS_AGENT_MAX_QUESTION_LENGTH" default:"1000"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUICKDEALS_REDIS_URL"`
	Address      string        `envconfig:"QUICKDEALS_REDIS_ADDR"`
	Password     string        `envconfig:"QUICKDEALS_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUICKDEALS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUICKDEALS_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"QUICKDEALS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUICKDEALS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUICKDEALS_REDIS_WRITE_TIMEOUT" default:"5s"`

	// SessionLockTTL bounds how long a crashed request can hold a session.
	SessionLockTTL time.Duration `envconfig:"QUICKDEALS_SESSION_LOCK_TTL" default:"10m"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type MetricsConfig struct {
	Enabled bool `envconfig:"QUICKDEALS_METRICS_ENABLED" default:"true"`
}
