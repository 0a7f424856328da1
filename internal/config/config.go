package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-burn-mint/internal/domain"
)

const (
	serviceName = "burn-mint"
	envPrefix   = "FF_BURNMINT"

	LedgerDriverSQLite   = "sqlite"
	LedgerDriverPostgres = "postgres"

	ChainModeSimulate = "simulate"
	ChainModeEVM      = "evm"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// LedgerConfig selects and configures the ledger database
type LedgerConfig struct {
	Driver         string `mapstructure:"driver"` // sqlite or postgres
	Path           string `mapstructure:"path"`   // sqlite file path
	DatabaseConfig `mapstructure:",squash"`
}

// BurnStoreConfig points at the source burn dataset
type BurnStoreConfig struct {
	Path      string `mapstructure:"path"`
	Table     string `mapstructure:"table"`
	MinAmount int64  `mapstructure:"min_amount"` // raw units; smaller burns are skipped
}

// ConversionConfig holds the burn-to-mint conversion rule
type ConversionConfig struct {
	Rule           string `mapstructure:"rule"`
	Rate           string `mapstructure:"rate"`
	SourceDecimals int32  `mapstructure:"source_decimals"`
	TargetDecimals int32  `mapstructure:"target_decimals"`
}

// AddressConfig holds depositor address validation settings
type AddressConfig struct {
	Format string `mapstructure:"format"`
}

// ExecutorConfig holds mint executor throttling and retry configuration
type ExecutorConfig struct {
	Concurrency         int           `mapstructure:"concurrency"`
	QueueSize           int           `mapstructure:"queue_size"`
	MaxAttempts         int           `mapstructure:"max_attempts"`       // per run
	MaxTotalAttempts    int           `mapstructure:"max_total_attempts"` // across all runs
	BackoffInitial      time.Duration `mapstructure:"backoff_initial"`
	BackoffMax          time.Duration `mapstructure:"backoff_max"`
	BackoffMultiplier   float64       `mapstructure:"backoff_multiplier"`
	BackoffJitter       float64       `mapstructure:"backoff_jitter"`
	MinInterval         time.Duration `mapstructure:"min_interval"` // minimum gap between two submissions
	ConfirmTimeout      time.Duration `mapstructure:"confirm_timeout"`
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"`
}

// ChainConfig holds target chain configuration
type ChainConfig struct {
	Mode              string        `mapstructure:"mode"`
	RPCURL            string        `mapstructure:"rpc_url"`
	ChainID           int64         `mapstructure:"chain_id"`
	ContractAddress   string        `mapstructure:"contract_address"`
	PrivateKey        string        `mapstructure:"private_key"`
	KeystorePath      string        `mapstructure:"keystore_path"`
	KeystorePassword  string        `mapstructure:"keystore_password"`
	GasLimit          uint64        `mapstructure:"gas_limit"` // 0 means estimate
	Confirmations     uint64        `mapstructure:"confirmations"`
	LogLookbackBlocks uint64        `mapstructure:"log_lookback_blocks"`
	DeployBlock       uint64        `mapstructure:"deploy_block"` // oldest block searched for settlement events
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	HeadTTL           time.Duration `mapstructure:"head_ttl"`          // latest block cache for confirmation polls
	HeadStaleWindow   time.Duration `mapstructure:"head_stale_window"` // serve a cached head this old when the rpc fails
}

// NATSConfig holds NATS JetStream configuration for settlement events
type NATSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Title     string `mapstructure:"title"`
}

// SettlerConfig holds configuration for the burn-mint binary
type SettlerConfig struct {
	BaseConfig `mapstructure:",squash"`
	BurnStore  BurnStoreConfig  `mapstructure:"burn_store"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Address    AddressConfig    `mapstructure:"address"`
	Executor   ExecutorConfig   `mapstructure:"executor"`
	Chain      ChainConfig      `mapstructure:"chain"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Report     ReportConfig     `mapstructure:"report"`
}

// LoadSettlerConfig loads configuration for burn-mint
func LoadSettlerConfig(configFile string, envPath string) (*SettlerConfig, error) {
	v := configureViper(serviceName, configFile, envPath)

	// Set defaults
	v.SetDefault("burn_store.path", "burn-data/burns.db")
	v.SetDefault("burn_store.table", "burns")
	v.SetDefault("burn_store.min_amount", domain.DEFAULT_MIN_BURN_AMOUNT)
	v.SetDefault("ledger.driver", LedgerDriverSQLite)
	v.SetDefault("ledger.path", "database/burn_mint.db")
	v.SetDefault("ledger.port", 5432)
	v.SetDefault("ledger.sslmode", "disable")
	v.SetDefault("ledger.max_open_conns", 20)
	v.SetDefault("ledger.max_idle_conns", 5)
	v.SetDefault("ledger.conn_max_lifetime", "5m")
	v.SetDefault("ledger.conn_max_idle_time", "10m")
	v.SetDefault("conversion.rule", string(domain.ConversionIdentity))
	v.SetDefault("conversion.rate", "1")
	v.SetDefault("conversion.source_decimals", domain.DEFAULT_SOURCE_DECIMALS)
	v.SetDefault("conversion.target_decimals", domain.DEFAULT_SOURCE_DECIMALS)
	v.SetDefault("address.format", string(domain.AddressFormatEVM))
	v.SetDefault("executor.concurrency", 1)
	v.SetDefault("executor.queue_size", 100)
	v.SetDefault("executor.max_attempts", 5)
	v.SetDefault("executor.max_total_attempts", 20)
	v.SetDefault("executor.backoff_initial", "1s")
	v.SetDefault("executor.backoff_max", "30s")
	v.SetDefault("executor.backoff_multiplier", 2.0)
	v.SetDefault("executor.backoff_jitter", 0.1)
	v.SetDefault("executor.min_interval", "2s")
	v.SetDefault("executor.confirm_timeout", "2m")
	v.SetDefault("executor.confirm_poll_interval", "3s")
	v.SetDefault("chain.mode", ChainModeSimulate)
	v.SetDefault("chain.confirmations", 1)
	v.SetDefault("chain.log_lookback_blocks", 50_000)
	v.SetDefault("chain.call_timeout", "30s")
	v.SetDefault("chain.head_ttl", "2s")
	v.SetDefault("chain.head_stale_window", "30s")
	v.SetDefault("nats.stream_name", "BURN_MINT")
	v.SetDefault("nats.subject_prefix", "burnmint")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", serviceName)
	v.SetDefault("report.output_dir", "output")
	v.SetDefault("report.title", "Burn to Mint Settlement Report")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			// Config file not found, use defaults and environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg SettlerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks option ranges and cross-field requirements
func (c *SettlerConfig) Validate() error {
	if c.BurnStore.Path == "" {
		return errors.New("burn_store.path is required")
	}
	if c.BurnStore.MinAmount < 0 {
		return errors.New("burn_store.min_amount must not be negative")
	}

	switch c.Ledger.Driver {
	case LedgerDriverSQLite:
		if c.Ledger.Path == "" {
			return errors.New("ledger.path is required for the sqlite driver")
		}
	case LedgerDriverPostgres:
		if c.Ledger.Host == "" {
			return errors.New("ledger.host is required for the postgres driver")
		}
		if c.Ledger.DBName == "" {
			return errors.New("ledger.dbname is required for the postgres driver")
		}
	default:
		return fmt.Errorf("ledger.driver must be %q or %q, got %q", LedgerDriverSQLite, LedgerDriverPostgres, c.Ledger.Driver)
	}

	if _, err := domain.NewConversionRule(
		domain.ConversionRuleName(c.Conversion.Rule),
		c.Conversion.Rate,
		c.Conversion.SourceDecimals,
		c.Conversion.TargetDecimals,
	); err != nil {
		return fmt.Errorf("invalid conversion config: %w", err)
	}

	if !domain.IsValidAddressFormat(domain.AddressFormat(c.Address.Format)) {
		return fmt.Errorf("address.format must be evm, base58 or any, got %q", c.Address.Format)
	}

	e := c.Executor
	if e.Concurrency < 1 {
		return errors.New("executor.concurrency must be at least 1")
	}
	if e.MaxAttempts < 1 {
		return errors.New("executor.max_attempts must be at least 1")
	}
	if e.MaxTotalAttempts < e.MaxAttempts {
		return errors.New("executor.max_total_attempts must not be less than executor.max_attempts")
	}
	if e.BackoffInitial <= 0 || e.BackoffMax < e.BackoffInitial {
		return errors.New("executor.backoff_initial must be positive and not exceed executor.backoff_max")
	}
	if e.BackoffMultiplier < 1 {
		return errors.New("executor.backoff_multiplier must be at least 1")
	}
	if e.BackoffJitter < 0 || e.BackoffJitter >= 1 {
		return errors.New("executor.backoff_jitter must be in [0, 1)")
	}
	if e.MinInterval < 0 {
		return errors.New("executor.min_interval must not be negative")
	}
	if e.ConfirmTimeout <= 0 || e.ConfirmPollInterval <= 0 {
		return errors.New("executor.confirm_timeout and executor.confirm_poll_interval must be positive")
	}

	switch c.Chain.Mode {
	case ChainModeSimulate:
	case ChainModeEVM:
		if c.Chain.RPCURL == "" {
			return errors.New("chain.rpc_url is required in evm mode")
		}
		if c.Chain.ContractAddress == "" {
			return errors.New("chain.contract_address is required in evm mode")
		}
		if c.Chain.PrivateKey == "" && c.Chain.KeystorePath == "" {
			return errors.New("chain.private_key or chain.keystore_path is required in evm mode")
		}
	default:
		return fmt.Errorf("chain.mode must be %q or %q, got %q", ChainModeSimulate, ChainModeEVM, c.Chain.Mode)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats.url is required when nats.enabled is true")
	}

	return nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Burn store
		"burn_store.path",
		"burn_store.table",
		"burn_store.min_amount",
		// Ledger
		"ledger.driver",
		"ledger.path",
		"ledger.host",
		"ledger.port",
		"ledger.user",
		"ledger.password",
		"ledger.dbname",
		"ledger.sslmode",
		"ledger.max_open_conns",
		"ledger.max_idle_conns",
		"ledger.conn_max_lifetime",
		"ledger.conn_max_idle_time",
		// Conversion
		"conversion.rule",
		"conversion.rate",
		"conversion.source_decimals",
		"conversion.target_decimals",
		"address.format",
		// Executor
		"executor.concurrency",
		"executor.queue_size",
		"executor.max_attempts",
		"executor.max_total_attempts",
		"executor.backoff_initial",
		"executor.backoff_max",
		"executor.backoff_multiplier",
		"executor.backoff_jitter",
		"executor.min_interval",
		"executor.confirm_timeout",
		"executor.confirm_poll_interval",
		// Chain
		"chain.mode",
		"chain.rpc_url",
		"chain.chain_id",
		"chain.contract_address",
		"chain.private_key",
		"chain.keystore_path",
		"chain.keystore_password",
		"chain.gas_limit",
		"chain.confirmations",
		"chain.log_lookback_blocks",
		"chain.deploy_block",
		"chain.call_timeout",
		"chain.head_ttl",
		"chain.head_stale_window",
		// NATS
		"nats.enabled",
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Report
		"report.output_dir",
		"report.title",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the nearest ancestor holding a config directory
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

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// AddressFormat returns the configured address format as a domain value
func (c *SettlerConfig) AddressFormat() domain.AddressFormat {
	return domain.AddressFormat(c.Address.Format)
}

// ConversionRule builds the configured conversion rule
func (c *SettlerConfig) ConversionRule() (domain.ConversionRule, error) {
	return domain.NewConversionRule(
		domain.ConversionRuleName(c.Conversion.Rule),
		c.Conversion.Rate,
		c.Conversion.SourceDecimals,
		c.Conversion.TargetDecimals,
	)
}
