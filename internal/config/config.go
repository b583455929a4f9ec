package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration. An empty Host selects the in-memory store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables the broker.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	EventsSubject  string        `mapstructure:"events_subject"`
	InboundSubject string        `mapstructure:"inbound_subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// ChainConfig holds protocol parameters
type ChainConfig struct {
	// StorageReserve is a decimal coin amount, e.g. "0.05"
	StorageReserve string `mapstructure:"storage_reserve"`
}

// CollectionConfig describes the collection the node hosts
type CollectionConfig struct {
	Address string `mapstructure:"address"`
	Owner   string `mapstructure:"owner"`
	// Content is the collection metadata URI
	Content string `mapstructure:"content"`
	// CommonContent is the prefix every item URI is joined to
	CommonContent string `mapstructure:"common_content"`
	Balance       string `mapstructure:"balance"`
}

// WorkerConfig holds the network worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize int `mapstructure:"pool_size"`
	MaxWaves       int `mapstructure:"max_waves"`
}

// NodeConfig holds the configuration of sbt-node
type NodeConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Collection CollectionConfig `mapstructure:"collection"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

// LoadNodeConfig loads sbt-node configuration from file and environment
func LoadNodeConfig(configFile string, envPath string) (*NodeConfig, error) {
	v := configureViper("sbt-node", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.stream_name", "SBT")
	v.SetDefault("nats.consumer_name", "sbt-node")
	v.SetDefault("nats.events_subject", "sbt.events")
	v.SetDefault("nats.inbound_subject", "sbt.messages.in")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "sbt-node")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("nats.publish_timeout", "30s")
	v.SetDefault("chain.storage_reserve", domain.DEFAULT_STORAGE_RESERVE.String())
	v.SetDefault("collection.balance", "1")
	v.SetDefault("worker.pool_size", 16)
	v.SetDefault("worker.max_waves", 64)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config NodeConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Reserve parses chain.storage_reserve
func (c *ChainConfig) Reserve() (domain.Coins, error) {
	reserve, err := domain.ParseCoins(c.StorageReserve)
	if err != nil {
		return 0, fmt.Errorf("chain.storage_reserve: %w", err)
	}
	return reserve, nil
}

// Addresses parses the collection and owner addresses
func (c *CollectionConfig) Addresses() (collection cell.Address, owner cell.Address, err error) {
	if collection, err = cell.ParseAddress(c.Address); err != nil {
		return collection, owner, fmt.Errorf("collection.address: %w", err)
	}
	if collection.IsNone() {
		return collection, owner, errors.New("collection.address is required")
	}
	if owner, err = cell.ParseAddress(c.Owner); err != nil {
		return collection, owner, fmt.Errorf("collection.owner: %w", err)
	}
	return collection, owner, nil
}

// InitialBalance parses collection.balance
func (c *CollectionConfig) InitialBalance() (domain.Coins, error) {
	balance, err := domain.ParseCoins(c.Balance)
	if err != nil {
		return 0, fmt.Errorf("collection.balance: %w", err)
	}
	return balance, nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// current directory, then cmd/<service>/, then config/
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("FF_SBT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees env values for keys viper already knows about
	bindAllEnvVars(v)
	return v
}

func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.events_subject",
		"nats.inbound_subject",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.publish_timeout",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Protocol
		"chain.storage_reserve",
		"collection.address",
		"collection.owner",
		"collection.content",
		"collection.common_content",
		"collection.balance",
		// Worker
		"worker.pool_size",
		"worker.max_waves",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// shared base first, then local, then per-service local
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
