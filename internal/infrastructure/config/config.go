package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

type Config struct {
	Port      string `env:"PORT,       default=3000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Backend BackendConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Flows   FlowConfig
}

type BackendConfig struct {
	URL       string        `env:"AUTHIFY_BACKEND_URL, default=http://localhost:8080"`
	UserPath  string        `env:"AUTHIFY_USER_PATH,   default=/user"`
	AdminPath string        `env:"AUTHIFY_ADMIN_PATH,  default=/admin"`
	Timeout   time.Duration `env:"BACKEND_TIMEOUT,     default=10s"`
}

type SessionConfig struct {
	Store        string        `env:"SESSION_STORE,  default=memory"`
	CookieName   string        `env:"SESSION_COOKIE, default=authify_session"`
	TTL          time.Duration `env:"SESSION_TTL,    default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE,  default=false"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=authify_gateway"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=0"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=0"`
}

type FlowConfig struct {
	ResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN,    default=60s"`
	PageSize       int           `env:"ADMIN_PAGE_SIZE,        default=10"`
	SearchMaxPages int           `env:"ADMIN_SEARCH_MAX_PAGES, default=50"`
	SearchWorkers  int           `env:"ADMIN_SEARCH_WORKERS,   default=4"`
}

// Load reads an optional .env file, then the environment, using go-envconfig.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, ".env", envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit dotenv path and lookuper.
func LoadFrom(ctx context.Context, dotenv string, lookuper envconfig.Lookuper) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case StoreMemory, StoreRedis, StoreMongo:
	default:
		return fmt.Errorf("config: SESSION_STORE must be one of memory, redis, mongo (got %q)", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	return nil
}

// Production reports whether ENV names a production deployment.
func (c *Config) Production() bool {
	return c.Env == "production"
}
