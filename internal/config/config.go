package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel string   `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTP     `yaml:"http"`
	Storage  Storage  `yaml:"storage"`
	Redis    Redis    `yaml:"redis"`
	Session  Session  `yaml:"session"`
	Shop     Shop     `yaml:"shop"`
	Admin    Admin    `yaml:"admin"`
	Catalog  Catalog  `yaml:"catalog"`
	SMTP     SMTP     `yaml:"smtp"`
	Security Security `yaml:"security"`
}

type HTTP struct {
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:":9091"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

// Storage.Driver is "memory" or "redis".
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"boardshop:"`
}

// DefaultSessionSecret signs tokens when SESSION_SECRET is unset. Refused in prod.
const DefaultSessionSecret = "change-me"

type Session struct {
	Secret string        `yaml:"secret" env:"SESSION_SECRET" env-default:"change-me"`
	TTL    time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"720h"`
}

type Shop struct {
	OrderPrefix           string        `yaml:"order_prefix" env:"ORDER_PREFIX" env-default:"BG"`
	FreeShippingThreshold int64         `yaml:"free_shipping_threshold" env:"FREE_SHIPPING_THRESHOLD" env-default:"50000"`
	ShippingFee           int64         `yaml:"shipping_fee" env:"SHIPPING_FEE" env-default:"5000"`
	MaxQuantityPerRequest int64         `yaml:"max_quantity_per_request" env:"MAX_QUANTITY_PER_REQUEST" env-default:"10"`
	RecoveryCodeTTL       time.Duration `yaml:"recovery_code_ttl" env:"RECOVERY_CODE_TTL" env-default:"10m"`
	ExposeRecoveryCode    bool          `yaml:"expose_recovery_code" env:"EXPOSE_RECOVERY_CODE" env-default:"false"`
}

type Admin struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// Catalog.URL empty means the embedded catalog is served.
type Catalog struct {
	URL     string        `yaml:"url" env:"CATALOG_URL"`
	Timeout time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"5s"`
}

// SMTP.Host empty means recovery codes are only logged.
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

type Security struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// Load reads CONFIG_PATH (default ./config/local.yaml) when the file exists,
// otherwise the environment alone. Environment variables override the file.
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	var cfg Config
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", configPath, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading env: %w", err)
	}
	return &cfg, nil
}

// DefaultSecret reports whether session tokens are signed with the built-in secret.
func (c *Config) DefaultSecret() bool {
	return c.Session.Secret == "" || c.Session.Secret == DefaultSessionSecret
}

// Validate rejects settings that are only acceptable outside prod.
func (c *Config) Validate() error {
	if c.Env == "prod" && c.DefaultSecret() {
		return fmt.Errorf("SESSION_SECRET must be set in prod")
	}
	return nil
}
