// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	TryOnTimeout   time.Duration `yaml:"tryon_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // firestore | postgres | memory
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables rate limiting and order intents
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	Provider  string `yaml:"provider"` // firebase | jwt
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

type PaymentConfig struct {
	Provider string `yaml:"provider"` // razorpay | noop
	Razorpay struct {
		KeyID     string `yaml:"key_id"`
		KeySecret string `yaml:"key_secret"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"razorpay"`
	Currency string           `yaml:"currency"`
	Prices   map[string]int64 `yaml:"prices"` // plan -> major units
	OrderTTL time.Duration    `yaml:"order_ttl"`
}

type TryOnConfig struct {
	Provider string `yaml:"provider"` // miragic | noop
	Miragic  struct {
		APIKey       string        `yaml:"api_key"`
		BaseURL      string        `yaml:"base_url"`
		PollInterval time.Duration `yaml:"poll_interval"`
		PollAttempts int           `yaml:"poll_attempts"`
	} `yaml:"miragic"`
	MaxImageBytes    int64 `yaml:"max_image_bytes"`
	MaxDimension     int   `yaml:"max_dimension"`
	MaxPixels        int64 `yaml:"max_pixels"` // width*height accepted before decoding
	RateLimitPerHour int   `yaml:"rate_limit_per_hour"`
}

type StylistConfig struct {
	Provider         string `yaml:"provider"` // gemini | openai | keyword
	GeminiKey        string `yaml:"gemini_key"`
	GeminiURL        string `yaml:"gemini_url"`
	OpenAIKey        string `yaml:"openai_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	Model            string `yaml:"model"`
	MaxOutputTokens  int    `yaml:"max_output_tokens"`
	MaxPromptTokens  int    `yaml:"max_prompt_tokens"`
	RateLimitPerHour int    `yaml:"rate_limit_per_hour"`
}

type WeatherConfig struct {
	Provider         string        `yaml:"provider"` // openweather | static | none
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	RateLimitPerHour int           `yaml:"rate_limit_per_hour"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	TryOn    TryOnConfig    `yaml:"tryon"`
	Stylist  StylistConfig  `yaml:"stylist"`
	Weather  WeatherConfig  `yaml:"weather"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path. ${VAR} references are expanded from
// the environment, which is first populated from a .env file when present.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 120 * time.Second
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.TryOnTimeout <= 0 {
		c.HTTP.TryOnTimeout = 90 * time.Second
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 50 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	c.Store.Driver = lowerOr(c.Store.Driver, "firestore")
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Auth.Provider = lowerOr(c.Auth.Provider, "firebase")

	c.Payment.Provider = lowerOr(c.Payment.Provider, "razorpay")
	if c.Payment.Razorpay.BaseURL == "" {
		c.Payment.Razorpay.BaseURL = "https://api.razorpay.com"
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "INR"
	}
	if len(c.Payment.Prices) == 0 {
		c.Payment.Prices = map[string]int64{"monthly": 299, "yearly": 2999}
	}
	if c.Payment.OrderTTL <= 0 {
		c.Payment.OrderTTL = 24 * time.Hour
	}

	c.TryOn.Provider = lowerOr(c.TryOn.Provider, "miragic")
	if c.TryOn.Miragic.BaseURL == "" {
		c.TryOn.Miragic.BaseURL = "https://backend.miragic.ai"
	}
	if c.TryOn.Miragic.PollInterval <= 0 {
		c.TryOn.Miragic.PollInterval = 2 * time.Second
	}
	if c.TryOn.Miragic.PollAttempts <= 0 {
		c.TryOn.Miragic.PollAttempts = 30
	}
	if c.TryOn.MaxImageBytes <= 0 {
		c.TryOn.MaxImageBytes = 10 << 20
	}
	if c.TryOn.MaxDimension <= 0 {
		c.TryOn.MaxDimension = 2048
	}
	if c.TryOn.MaxPixels <= 0 {
		c.TryOn.MaxPixels = 40_000_000
	}
	if c.TryOn.RateLimitPerHour <= 0 {
		c.TryOn.RateLimitPerHour = 10
	}

	c.Stylist.Provider = lowerOr(c.Stylist.Provider, "keyword")
	if c.Stylist.Model == "" {
		switch c.Stylist.Provider {
		case "openai":
			c.Stylist.Model = "gpt-4o-mini"
		default:
			c.Stylist.Model = "gemini-2.0-flash"
		}
	}
	if c.Stylist.MaxOutputTokens <= 0 {
		c.Stylist.MaxOutputTokens = 1024
	}
	if c.Stylist.MaxPromptTokens <= 0 {
		c.Stylist.MaxPromptTokens = 1024
	}
	if c.Stylist.RateLimitPerHour <= 0 {
		c.Stylist.RateLimitPerHour = 20
	}

	c.Weather.Provider = lowerOr(c.Weather.Provider, "none")
	if c.Weather.Timeout <= 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Weather.RateLimitPerHour <= 0 {
		c.Weather.RateLimitPerHour = 60
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "firestore":
		if c.Firebase.ProjectID == "" {
			return errors.New("firebase.project_id is required for the firestore store")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}

	switch c.Auth.Provider {
	case "firebase":
		if c.Firebase.ProjectID == "" {
			return errors.New("firebase.project_id is required for firebase auth")
		}
	case "jwt":
		if len(c.Auth.JWTSecret) < 16 {
			return errors.New("auth.jwt_secret must be at least 16 bytes")
		}
	default:
		return fmt.Errorf("auth.provider %q is not supported", c.Auth.Provider)
	}

	switch c.Payment.Provider {
	case "razorpay":
		if c.Payment.Razorpay.KeyID == "" || c.Payment.Razorpay.KeySecret == "" {
			return errors.New("payment.razorpay.key_id and key_secret are required")
		}
	case "noop":
		if c.Payment.Razorpay.KeySecret == "" {
			return errors.New("payment.razorpay.key_secret is required to verify signatures")
		}
	default:
		return fmt.Errorf("payment.provider %q is not supported", c.Payment.Provider)
	}
	for _, plan := range []string{"monthly", "yearly"} {
		if c.Payment.Prices[plan] <= 0 {
			return fmt.Errorf("payment.prices.%s must be positive", plan)
		}
	}

	switch c.TryOn.Provider {
	case "miragic":
		if c.TryOn.Miragic.APIKey == "" {
			return errors.New("tryon.miragic.api_key is required")
		}
	case "noop":
	default:
		return fmt.Errorf("tryon.provider %q is not supported", c.TryOn.Provider)
	}

	switch c.Stylist.Provider {
	case "gemini":
		if c.Stylist.GeminiKey == "" {
			return errors.New("stylist.gemini_key is required")
		}
	case "openai":
		if c.Stylist.OpenAIKey == "" {
			return errors.New("stylist.openai_key is required")
		}
	case "keyword":
	default:
		return fmt.Errorf("stylist.provider %q is not supported", c.Stylist.Provider)
	}

	switch c.Weather.Provider {
	case "openweather":
		if c.Weather.APIKey == "" {
			return errors.New("weather.api_key is required for openweather")
		}
	case "static", "none":
	default:
		return fmt.Errorf("weather.provider %q is not supported", c.Weather.Provider)
	}
	return nil
}

func lowerOr(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}
