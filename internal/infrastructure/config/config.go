package config

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "GALLERY_"

// Storage drivers for the principal snapshot and the search history.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

type Config struct {
	// Host must be a loopback address: the session belongs to whoever runs the process.
	Host     string `env:"HOST,      default=127.0.0.1"`
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	SearchHistoryLimit int `env:"SEARCH_HISTORY_LIMIT, default=5"`

	Backend BackendConfig `env:", prefix=BACKEND_"`
	Storage StorageConfig `env:", prefix=STORAGE_"`
	Mongo   MongoConfig
	Redis   RedisConfig
}

// BackendConfig locates the REST backend. Paths are joined to URL.
type BackendConfig struct {
	URL     string        `env:"URL,     default=http://127.0.0.1:8000"`
	Timeout time.Duration `env:"TIMEOUT, default=10s"`

	CSRFPath   string `env:"CSRF_PATH,   default=/api/auth/csrf-token/"`
	LoginPath  string `env:"LOGIN_PATH,  default=/api/auth/login/"`
	LogoutPath string `env:"LOGOUT_PATH, default=/api/auth/logout/"`
	VerifyPath string `env:"VERIFY_PATH, default=/api/auth/verify/"`
}

type StorageConfig struct {
	Driver string `env:"DRIVER, default=sqlite"`
	Path   string `env:"PATH,   default=data/gallery.db"`
	// Namespace keys every stored value, so several tabs can share one Redis or Mongo.
	Namespace string `env:"NAMESPACE, default=default"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=gallery_web"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// IsDevelopment reports whether console logging and verbose errors are wanted.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from GALLERY_ prefixed environment variables.
func Load() *Config {
	cfg, err := LoadWith(envconfig.OsLookuper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadWith reads configuration through l, applying the GALLERY_ prefix.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, l),
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !isLoopbackHost(c.Host) {
		return fmt.Errorf("host %q is not a loopback address", c.Host)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverRedis, DriverMongo:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.Backend.Timeout)
	}
	return nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
