// Package config loads the marketplace service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/vasapolrittideah/marketplace-api/shared/mailer"
)

// Config is built once at startup and passed by reference into every component.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"marketplace-service"`
	// AppBaseURL is the public URL confirmation and reset links are built on.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8000" validate:"required,url"`

	HTTP    HTTPConfig    `envPrefix:"HTTP_"`
	GRPC    GRPCConfig    `envPrefix:"GRPC_"`
	Store   StoreConfig
	Token   TokenConfig   `envPrefix:"TOKEN_"`
	Mailer  mailer.Config
	Storage StorageConfig `envPrefix:"S3_"`
	Consul  ConsulConfig  `envPrefix:"CONSUL_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Addr               string        `env:"ADDR"                 envDefault:":8000"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	ReadHeaderTimeout  time.Duration `env:"READ_HEADER_TIMEOUT"  envDefault:"5s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT"     envDefault:"10s"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES"     envDefault:"10485760" validate:"gt=0"`
}

type GRPCConfig struct {
	HealthAddr string `env:"HEALTH_ADDR" envDefault:":8001"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER"   envDefault:"mongo"       validate:"oneof=mongo postgres memory"`
	MongoURI      string `env:"MONGO_URI"                               validate:"required_if=Driver mongo"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"marketplace"`
	PostgresDSN   string `env:"POSTGRES_DSN"                            validate:"required_if=Driver postgres"`
}

type TokenConfig struct {
	Secret     string        `env:"SECRET"      validate:"required"`
	Issuer     string        `env:"ISSUER"      envDefault:"marketplace-api"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"60m" validate:"gt=0"`
	ConfirmTTL time.Duration `env:"CONFIRM_TTL" envDefault:"60m" validate:"gt=0"`
	ResetTTL   time.Duration `env:"RESET_TTL"   envDefault:"30m" validate:"gt=0"`
}

// StorageConfig points at an S3 compatible bucket. An empty Bucket disables uploads;
// image URLs are then only built, never written.
type StorageConfig struct {
	Bucket        string `env:"BUCKET"`
	Region        string `env:"REGION"          envDefault:"us-east-1"`
	Endpoint      string `env:"ENDPOINT"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:9000" validate:"required,url"`
}

type ConsulConfig struct {
	Enabled     bool   `env:"ENABLED"`
	Addr        string `env:"ADDR"`
	ServiceHost string `env:"SERVICE_HOST" envDefault:"127.0.0.1"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Pretty bool   `env:"PRETTY"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFromMap parses environ instead of the process environment.
func LoadFromMap(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints the environment parser cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
