package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Mongo  MongoConfig
	Server ServerConfig
	Auth   AuthConfig
	Upload UploadConfig
	Cache  CacheConfig
	Events EventsConfig
	Log    LogConfig

	StoreDriver string   `envconfig:"STORE_DRIVER" default:"mongo"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	// SeedDemo loads the demo catalog and poojas into empty collections on start.
	SeedDemo bool `envconfig:"SEED_DEMO" default:"false"`
}

type MongoConfig struct {
	URI            string        `envconfig:"MONGO_URI"`
	Database       string        `envconfig:"MONGO_DB" default:"ayush"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"5000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"5242880"`
}

type AuthConfig struct {
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`
	AdminAPIKey string        `envconfig:"ADMIN_API_KEY"`
}

type UploadConfig struct {
	Dir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
}

type CacheConfig struct {
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

type EventsConfig struct {
	RabbitURL string `envconfig:"RABBIT_URL"`
	Exchange  string `envconfig:"EVENTS_EXCHANGE" default:"ayush.events"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

const defaultMongoURI = "mongodb://localhost:27017"

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	// Hosting providers inject MONGO_PUBLIC_URL or MONGO_URL instead.
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = firstEnv("MONGO_PUBLIC_URL", "MONGO_URL")
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = defaultMongoURI
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

func (c *Config) CacheEnabled() bool  { return c.Cache.RedisAddr != "" }
func (c *Config) EventsEnabled() bool { return c.Events.RabbitURL != "" }

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
