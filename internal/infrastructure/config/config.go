package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	APIBaseURL  string        `env:"API_BASE_URL, default=http://localhost:8080"`
	Port        string        `env:"PORT,         default=3000"`
	Env         string        `env:"ENV,          default=development"`
	LogLevel    string        `env:"LOG_LEVEL,    default=info"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT, default=15s"`

	Session SessionConfig
}

// SessionConfig selects where the bearer token and cached user survive
// restarts: in memory, in a state file, or in Redis.
type SessionConfig struct {
	Backend  string `env:"SESSION_STORE, default=memory"`
	FilePath string `env:"SESSION_FILE,  default=.rentdesk/session.json"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR,        default=localhost:6379"`
	DB   int    `env:"REDIS_DB,          default=0"`
	Key  string `env:"REDIS_SESSION_KEY, default=rentdesk:session:default"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
