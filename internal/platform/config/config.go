// Package config assembles process configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable holding the YAML overlay path.
const EnvConfigPath = "COUNSEL_CONFIG"

type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	Integrity Integrity `yaml:"integrity"`
	Log       Log       `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr" validate:"required"`
	AdminToken      string        `yaml:"admin_token"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// Database configures the Postgres pool. An empty URL selects in-memory stores.
type Database struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" validate:"gte=0"`
}

// Redis configures the shared client. An empty URL disables Redis.
type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size" validate:"gte=0"`
	MinIdleConns int           `yaml:"min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `yaml:"dial_timeout" validate:"gte=0"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// Kafka configures the audit topic. No brokers disables the publisher.
type Kafka struct {
	Brokers     []string `yaml:"brokers" validate:"dive,hostname_port"`
	Topic       string   `yaml:"topic" validate:"required_with=Brokers"`
	AsyncBuffer int      `yaml:"async_buffer" validate:"gte=0"`
}

// Integrity tunes the validation engine and its maintenance scheduler.
type Integrity struct {
	CacheTTL           time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	CacheBackend       string        `yaml:"cache_backend" validate:"oneof=memory redis"`
	ScanInterval       time.Duration `yaml:"scan_interval" validate:"gt=0"`
	LockTTL            time.Duration `yaml:"lock_ttl" validate:"gt=0"`
	AutoRepair         bool          `yaml:"auto_repair"`
	Guilds             []string      `yaml:"guilds" validate:"dive,required"`
	ValidStaffStatuses []string      `yaml:"valid_staff_statuses" validate:"min=1,dive,required"`
	DefaultStaffStatus string        `yaml:"default_staff_status" validate:"required"`
	DisabledRules      []string      `yaml:"disabled_rules"`
}

type Log struct {
	Format string `yaml:"format" validate:"oneof=json text"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: Redis{
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{Topic: "integrity.repairs"},
		Integrity: Integrity{
			CacheTTL:           30 * time.Second,
			CacheBackend:       "memory",
			ScanInterval:       time.Hour,
			LockTTL:            5 * time.Minute,
			ValidStaffStatuses: []string{"active", "inactive", "terminated"},
			DefaultStaffStatus: "active",
		},
		Log: Log{Format: "json", Level: "info"},
	}
}

// Load reads the YAML file at path (skipped when empty) over the defaults,
// applies environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv loads the file named by COUNSEL_CONFIG, if any, plus environment
// overrides.
func FromEnv() (Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

var validate = validator.New()

// Validate checks struct tags and the cross-field staff status rule.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if !slices.Contains(c.Integrity.ValidStaffStatuses, c.Integrity.DefaultStaffStatus) {
		return fmt.Errorf("default staff status %q is not a valid staff status", c.Integrity.DefaultStaffStatus)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("COUNSEL_ADDR", &cfg.Server.Addr)
	str("COUNSEL_ADMIN_TOKEN", &cfg.Server.AdminToken)
	str("DATABASE_URL", &cfg.Database.URL)
	num("DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	str("REDIS_URL", &cfg.Redis.URL)
	num("REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("KAFKA_AUDIT_TOPIC", &cfg.Kafka.Topic)
	num("KAFKA_ASYNC_BUFFER", &cfg.Kafka.AsyncBuffer)
	dur("INTEGRITY_CACHE_TTL", &cfg.Integrity.CacheTTL)
	str("INTEGRITY_CACHE_BACKEND", &cfg.Integrity.CacheBackend)
	dur("INTEGRITY_SCAN_INTERVAL", &cfg.Integrity.ScanInterval)
	dur("INTEGRITY_LOCK_TTL", &cfg.Integrity.LockTTL)
	flag("INTEGRITY_AUTO_REPAIR", &cfg.Integrity.AutoRepair)
	list("INTEGRITY_GUILDS", &cfg.Integrity.Guilds)
	list("INTEGRITY_VALID_STAFF_STATUSES", &cfg.Integrity.ValidStaffStatuses)
	str("INTEGRITY_DEFAULT_STAFF_STATUS", &cfg.Integrity.DefaultStaffStatus)
	list("INTEGRITY_DISABLED_RULES", &cfg.Integrity.DisabledRules)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_LEVEL", &cfg.Log.Level)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalize trims list entries and drops blanks and repeats, keeping the
// first occurrence.
func (c *Config) normalize() {
	c.Kafka.Brokers = dedupeAndTrim(c.Kafka.Brokers)
	c.Integrity.Guilds = dedupeAndTrim(c.Integrity.Guilds)
	c.Integrity.ValidStaffStatuses = dedupeAndTrim(c.Integrity.ValidStaffStatuses)
	c.Integrity.DisabledRules = dedupeAndTrim(c.Integrity.DisabledRules)
}

func dedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
