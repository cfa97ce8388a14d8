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
)

const (
	// DatabaseDriverPostgres selects the gorm/postgres store
	DatabaseDriverPostgres = "postgres"
	// DatabaseDriverMemory selects the in-process store (development only)
	DatabaseDriverMemory = "memory"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	Environment string `mapstructure:"environment"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // e.g. "5m", "1h"
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // e.g. "10m"
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds

	// CORSAllowedOrigins restricts cross-origin callers; empty allows every origin
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// ProgramConfig holds the organization and payout settings of the ambassador program
type ProgramConfig struct {
	OrganizationName      string   `mapstructure:"organization_name"`
	AmbassadorLandingPage string   `mapstructure:"ambassador_landing_page"`
	AdminEmails           []string `mapstructure:"admin_emails"`
	PayoutPerTripler      int64    `mapstructure:"payout_per_tripler"`  // in cents
	FirstRewardPayout     int64    `mapstructure:"first_reward_payout"` // in cents
	ClaimTriplerLimit     int      `mapstructure:"claim_tripler_limit"`
}

// MessagesConfig holds the text/template sources of every outbound message
type MessagesConfig struct {
	TriplerConfirmation        string `mapstructure:"tripler_confirmation"`
	TriplerReminder            string `mapstructure:"tripler_reminder"`
	TriplerReconfirmation      string `mapstructure:"tripler_reconfirmation"`
	TriplerUpgrade             string `mapstructure:"tripler_upgrade"`
	AmbassadorTriplerConfirmed string `mapstructure:"ambassador_tripler_confirmed"`
	RejectionForTripler        string `mapstructure:"rejection_for_tripler"`
	RejectionForAmbassador     string `mapstructure:"rejection_for_ambassador"`
	AdminEmailSubject          string `mapstructure:"admin_email_subject"`
}

// SearchConfig holds search and suggestion bounds
type SearchConfig struct {
	SuggestLimit       int     `mapstructure:"suggest_limit"`
	SuggestMaxDistance float64 `mapstructure:"suggest_max_distance"` // in meters
	CandidatePoolLimit int     `mapstructure:"candidate_pool_limit"`
	ResultLimit        int     `mapstructure:"result_limit"`
	AdminSearchLimit   int     `mapstructure:"admin_search_limit"`
}

// TasksConfig holds the background task queue configuration
type TasksConfig struct {
	AdminEmailDelay time.Duration `mapstructure:"admin_email_delay"`
	Worker          WorkerConfig  `mapstructure:"worker"`
}

// TwilioConfig holds Twilio messaging and lookup configuration
type TwilioConfig struct {
	AccountSID      string   `mapstructure:"account_sid"`
	AuthToken       string   `mapstructure:"auth_token"`
	FromNumber      string   `mapstructure:"from_number"`
	APIURL          string   `mapstructure:"api_url"`
	LookupURL       string   `mapstructure:"lookup_url"`
	BlockedCarriers []string `mapstructure:"blocked_carriers"`
}

// EkataConfig holds Ekata reverse phone configuration
type EkataConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

// SendGridConfig holds SendGrid email configuration
type SendGridConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APIURL    string `mapstructure:"api_url"`
	FromEmail string `mapstructure:"from_email"`
}

// GeocoderConfig holds the US Census geocoder configuration
type GeocoderConfig struct {
	APIURL    string `mapstructure:"api_url"`
	Benchmark string `mapstructure:"benchmark"`
}

// RateLimitConfig holds the outbound rate limit of one provider. Zero requests_per_second disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxQueueTime      time.Duration `mapstructure:"max_queue_time"`
}

// ProvidersConfig holds external collaborator configuration
type ProvidersConfig struct {
	HTTPTimeout time.Duration  `mapstructure:"http_timeout"`
	Twilio      TwilioConfig   `mapstructure:"twilio"`
	Ekata       EkataConfig    `mapstructure:"ekata"`
	SendGrid    SendGridConfig `mapstructure:"sendgrid"`
	Geocoder    GeocoderConfig `mapstructure:"geocoder"`

	// RateLimits is keyed by provider: twilio, ekata, sendgrid, geocoder
	RateLimits map[string]RateLimitConfig `mapstructure:"rate_limits"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Auth       AuthConfig      `mapstructure:"auth"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Providers  ProvidersConfig `mapstructure:"providers"`
	Program    ProgramConfig   `mapstructure:"program"`
	Messages   MessagesConfig  `mapstructure:"messages"`
	Search     SearchConfig    `mapstructure:"search"`
	Tasks      TasksConfig     `mapstructure:"tasks"`
}

// UpgradeSweeperConfig holds configuration for the tripler upgrade sweeper
type UpgradeSweeperConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	Worker    WorkerConfig  `mapstructure:"worker"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Providers      ProvidersConfig      `mapstructure:"providers"`
	Program        ProgramConfig        `mapstructure:"program"`
	Messages       MessagesConfig       `mapstructure:"messages"`
	UpgradeSweeper UpgradeSweeperConfig `mapstructure:"upgrade_sweeper"`
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("environment", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	setDatabaseDefaults(v)
	v.SetDefault("nats.stream_name", "AMBASSADOR_EVENTS")
	v.SetDefault("nats.subject_prefix", "ambassador")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "ambassador-api")
	setProviderDefaults(v)
	setProgramDefaults(v)
	v.SetDefault("search.suggest_limit", 1000)
	v.SetDefault("search.suggest_max_distance", 10000)
	v.SetDefault("search.candidate_pool_limit", 500)
	v.SetDefault("search.result_limit", 100)
	v.SetDefault("search.admin_search_limit", 1000)
	v.SetDefault("tasks.admin_email_delay", "100ms")
	v.SetDefault("tasks.worker.pool_size", 4)
	v.SetDefault("tasks.worker.queue_size", 256)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Database.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	v.SetDefault("environment", "development")
	setDatabaseDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	setProviderDefaults(v)
	setProgramDefaults(v)
	v.SetDefault("upgrade_sweeper.interval", "10m")
	v.SetDefault("upgrade_sweeper.batch_size", 100)
	v.SetDefault("upgrade_sweeper.worker.pool_size", 5)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The sweeper only makes sense against a shared database
	if cfg.Database.Driver != DatabaseDriverPostgres {
		return nil, fmt.Errorf("database.driver must be %q for the sweeper", DatabaseDriverPostgres)
	}
	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DatabaseDriverPostgres)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

func setProviderDefaults(v *viper.Viper) {
	v.SetDefault("providers.http_timeout", "15s")
	v.SetDefault("providers.twilio.api_url", "https://api.twilio.com/2010-04-01")
	v.SetDefault("providers.twilio.lookup_url", "https://lookups.twilio.com/v1")
	v.SetDefault("providers.ekata.api_url", "https://api.ekata.com/3.1")
	v.SetDefault("providers.sendgrid.api_url", "https://api.sendgrid.com/v3")
	v.SetDefault("providers.geocoder.api_url", "https://geocoding.geo.census.gov/geocoder")
	v.SetDefault("providers.geocoder.benchmark", "Public_AR_Current")
	v.SetDefault("providers.rate_limits.twilio.requests_per_second", 10)
	v.SetDefault("providers.rate_limits.twilio.burst", 10)
	v.SetDefault("providers.rate_limits.geocoder.requests_per_second", 5)
	v.SetDefault("providers.rate_limits.geocoder.burst", 5)
}

func setProgramDefaults(v *viper.Viper) {
	v.SetDefault("program.payout_per_tripler", 1500)
	v.SetDefault("program.first_reward_payout", 1000)
	v.SetDefault("program.claim_tripler_limit", 12)
	v.SetDefault("messages.tripler_confirmation",
		"Hi {{.TriplerFirstName}}, {{.AmbassadorFirstName}} {{.AmbassadorLastName}} asked you to be a Vote Tripler "+
			"for {{.OrganizationName}} in {{.TriplerCity}}, reminding {{.Triplee1}}, {{.Triplee2}} and {{.Triplee3}} to vote. "+
			"Reply YES to confirm.")
	v.SetDefault("messages.tripler_reminder",
		"Hi {{.TriplerFirstName}}, a reminder from {{.AmbassadorFirstName}} {{.AmbassadorLastName}} at {{.OrganizationName}}: "+
			"reply YES to confirm you will remind {{.Triplee1}}, {{.Triplee2}} and {{.Triplee3}} to vote.")
	v.SetDefault("messages.tripler_reconfirmation",
		"Hi {{.TriplerFirstName}}, {{.AmbassadorFirstName}} {{.AmbassadorLastName}} is still waiting for your answer. "+
			"Reply YES to confirm you will remind {{.Triplee1}}, {{.Triplee2}} and {{.Triplee3}} to vote.")
	v.SetDefault("messages.tripler_upgrade",
		"Thanks for being a Vote Tripler, {{.TriplerFirstName}}! {{.AmbassadorFirstName}} {{.AmbassadorLastName}} "+
			"invites you to become an Ambassador: {{.AmbassadorLandingPage}}")
	v.SetDefault("messages.ambassador_tripler_confirmed",
		"Hi {{.AmbassadorFirstName}}, {{.TriplerFirstName}} confirmed as your Vote Tripler. "+
			"You earned {{.PaymentAmount}}. {{.AmbassadorLandingPage}}")
	v.SetDefault("messages.rejection_for_tripler",
		"Thanks for your reply. You will not receive further messages about being a Vote Tripler.")
	v.SetDefault("messages.rejection_for_ambassador",
		"Hi {{.AmbassadorFirstName}}, {{.TriplerFirstName}} declined to be a Vote Tripler. "+
			"Find more possible Vote Triplers at {{.AmbassadorLandingPage}}")
	v.SetDefault("messages.admin_email_subject", "New Tripler Confirmed for {{.OrganizationName}}")
}

// readConfig reads the config file; a missing file falls back to defaults and environment variables
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func (c *DatabaseConfig) validate() error {
	switch c.Driver {
	case DatabaseDriverMemory:
		return nil
	case DatabaseDriverPostgres:
		if c.Host == "" {
			return errors.New("database.host is required")
		}
		if c.DBName == "" {
			return errors.New("database.dbname is required")
		}
		return nil
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Driver)
	}
}

// configureViper returns a viper instance with the config file and environment variables set
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
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("AMBASSADOR")
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
		"environment",
		"sentry_dsn",
		// Database
		"database.driver",
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
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
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
		// Providers
		"providers.http_timeout",
		"providers.twilio.account_sid",
		"providers.twilio.auth_token",
		"providers.twilio.from_number",
		"providers.twilio.api_url",
		"providers.twilio.lookup_url",
		"providers.twilio.blocked_carriers",
		"providers.ekata.api_key",
		"providers.ekata.api_url",
		"providers.sendgrid.api_key",
		"providers.sendgrid.api_url",
		"providers.sendgrid.from_email",
		"providers.geocoder.api_url",
		"providers.geocoder.benchmark",
		"providers.rate_limits.twilio.requests_per_second",
		"providers.rate_limits.twilio.burst",
		"providers.rate_limits.ekata.requests_per_second",
		"providers.rate_limits.ekata.burst",
		"providers.rate_limits.sendgrid.requests_per_second",
		"providers.rate_limits.sendgrid.burst",
		"providers.rate_limits.geocoder.requests_per_second",
		"providers.rate_limits.geocoder.burst",
		// Program
		"program.organization_name",
		"program.ambassador_landing_page",
		"program.admin_emails",
		"program.payout_per_tripler",
		"program.first_reward_payout",
		"program.claim_tripler_limit",
		// Messages
		"messages.tripler_confirmation",
		"messages.tripler_reminder",
		"messages.tripler_reconfirmation",
		"messages.tripler_upgrade",
		"messages.ambassador_tripler_confirmed",
		"messages.rejection_for_tripler",
		"messages.rejection_for_ambassador",
		"messages.admin_email_subject",
		// Search
		"search.suggest_limit",
		"search.suggest_max_distance",
		"search.candidate_pool_limit",
		"search.result_limit",
		"search.admin_search_limit",
		// Tasks
		"tasks.admin_email_delay",
		"tasks.worker.pool_size",
		"tasks.worker.queue_size",
		// Upgrade sweeper
		"upgrade_sweeper.interval",
		"upgrade_sweeper.batch_size",
		"upgrade_sweeper.worker.pool_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
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
