package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"qbank/resolver"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

type Config struct {
	Port        string
	BindAddress string

	StoreBackend string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	MongoURI     string
	MongoDB      string

	CacheBackend  string
	CacheTTL      time.Duration
	CacheCapacity int
	CachePrefix   string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	HealQueueSize    int
	HealWorkers      int
	HealDrainTimeout time.Duration

	LogLevel  string
	LogFormat string

	Tuning resolver.Tuning
}

// fileConfig is the optional TOML overlay named by QBANK_CONFIG.
type fileConfig struct {
	Resolver  resolver.Tuning `toml:"resolver"`
	Cache     cacheFile       `toml:"cache"`
	HealQueue healQueueFile   `toml:"heal_queue"`
}

type cacheFile struct {
	TTL      string `toml:"ttl"`
	Capacity int    `toml:"capacity"`
}

type healQueueFile struct {
	Size         int    `toml:"size"`
	Workers      int    `toml:"workers"`
	DrainTimeout string `toml:"drain_timeout"`
}

// Load reads the environment, applies the QBANK_CONFIG file when set, and
// validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("QBANK_CONFIG"))
}

// LoadFrom is Load with an explicit TOML overlay path. An empty path skips
// the overlay.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		BindAddress: getEnv("BIND_ADDRESS", "localhost"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "qbank"),
		DBPassword:   getEnv("DB_PASSWORD", "qbank"),
		DBName:       getEnv("DB_NAME", "qbank"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "qbank"),

		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		CachePrefix:   getEnv("CACHE_PREFIX", "qbank:resolve:"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Tuning: resolver.DefaultTuning(),
	}

	var err error
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheCapacity, err = getEnvInt("CACHE_CAPACITY", 5000); err != nil {
		return nil, err
	}
	if cfg.HealQueueSize, err = getEnvInt("HEAL_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.HealWorkers, err = getEnvInt("HEAL_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.HealDrainTimeout, err = getEnvDuration("HEAL_DRAIN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	fc := fileConfig{
		Resolver:  c.Tuning,
		Cache:     cacheFile{Capacity: c.CacheCapacity},
		HealQueue: healQueueFile{Size: c.HealQueueSize, Workers: c.HealWorkers},
	}
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.Tuning = fc.Resolver
	c.CacheCapacity = fc.Cache.Capacity
	c.HealQueueSize = fc.HealQueue.Size
	c.HealWorkers = fc.HealQueue.Workers
	if fc.Cache.TTL != "" {
		if c.CacheTTL, err = time.ParseDuration(fc.Cache.TTL); err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
	}
	if fc.HealQueue.DrainTimeout != "" {
		if c.HealDrainTimeout, err = time.ParseDuration(fc.HealQueue.DrainTimeout); err != nil {
			return fmt.Errorf("heal_queue.drain_timeout: %w", err)
		}
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port: %q is not a number", c.Port))
	}
	switch c.StoreBackend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store backend: unsupported value %q", c.StoreBackend))
	}
	switch c.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("cache backend: unsupported value %q", c.CacheBackend))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache ttl: must be positive"))
	}
	if c.CacheCapacity < 1 {
		errs = append(errs, errors.New("cache capacity: must be at least 1"))
	}
	if c.HealQueueSize < 1 || c.HealWorkers < 1 {
		errs = append(errs, errors.New("heal queue: size and workers must be at least 1"))
	}
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("resolver: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})
}

func InitMongo(ctx context.Context, cfg *Config) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}
