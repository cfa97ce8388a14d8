package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: 127.0.0.1
  port: 9090
database:
  host: localhost
  port: 5433
  user: testuser
  password: testpass
  dbname: testdb
auth:
  api_keys: ["admin-key"]
nats:
  url: "nats://localhost:4222"
providers:
  twilio:
    account_sid: AC123
    from_number: "+15550000000"
    blocked_carriers: ["Burner Mobile"]
program:
  organization_name: "Vote Org"
  ambassador_landing_page: "https://example.org/ambassadors"
  admin_emails: ["ops@example.org"]
  payout_per_tripler: 2000
search:
  result_limit: 50
tasks:
  admin_email_delay: 2s
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, []string{"admin-key"}, cfg.Auth.APIKeys)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "AC123", cfg.Providers.Twilio.AccountSID)
				assert.Equal(t, []string{"Burner Mobile"}, cfg.Providers.Twilio.BlockedCarriers)
				assert.Equal(t, "Vote Org", cfg.Program.OrganizationName)
				assert.Equal(t, []string{"ops@example.org"}, cfg.Program.AdminEmails)
				assert.Equal(t, int64(2000), cfg.Program.PayoutPerTripler)
				assert.Equal(t, 50, cfg.Search.ResultLimit)
				assert.Equal(t, 2*time.Second, cfg.Tasks.AdminEmailDelay)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  driver: memory
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, DatabaseDriverMemory, cfg.Database.Driver)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "AMBASSADOR_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, int64(1500), cfg.Program.PayoutPerTripler)
				assert.Equal(t, int64(1000), cfg.Program.FirstRewardPayout)
				assert.Equal(t, 12, cfg.Program.ClaimTriplerLimit)
				assert.Equal(t, 1000, cfg.Search.SuggestLimit)
				assert.InDelta(t, 10000, cfg.Search.SuggestMaxDistance, 0)
				assert.Equal(t, 500, cfg.Search.CandidatePoolLimit)
				assert.Equal(t, 100, cfg.Search.ResultLimit)
				assert.Equal(t, 1000, cfg.Search.AdminSearchLimit)
				assert.Equal(t, 100*time.Millisecond, cfg.Tasks.AdminEmailDelay)
				assert.Equal(t, 15*time.Second, cfg.Providers.HTTPTimeout)
				assert.Contains(t, cfg.Messages.TriplerConfirmation, "{{.Triplee1}}")
				assert.Contains(t, cfg.Messages.AmbassadorTriplerConfirmed, "{{.PaymentAmount}}")
			},
		},
		{
			name:        "postgres without host",
			configFile:  "database:\n  dbname: testdb\n",
			expectError: true,
		},
		{
			name:        "unknown driver",
			configFile:  "database:\n  driver: mysql\n",
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
database:
  host: localhost
  port: invalid
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.configFile), 0600))

			cfg, err := LoadAPIConfig(configFile, t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadSweeperConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *SweeperConfig)
	}{
		{
			name: "valid config with defaults",
			configFile: `
database:
  host: localhost
  dbname: ambassador
upgrade_sweeper:
  batch_size: 25
`,
			validate: func(t *testing.T, cfg *SweeperConfig) {
				assert.Equal(t, 25, cfg.UpgradeSweeper.BatchSize)
				assert.Equal(t, 10*time.Minute, cfg.UpgradeSweeper.Interval)
				assert.Equal(t, 5, cfg.UpgradeSweeper.Worker.WorkerPoolSize)
				assert.Equal(t, 5, cfg.Database.MaxOpenConns)
				assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
				assert.Contains(t, cfg.Messages.TriplerUpgrade, "{{.AmbassadorLandingPage}}")
			},
		},
		{
			name:        "memory driver is rejected",
			configFile:  "database:\n  driver: memory\n",
			expectError: true,
		},
		{
			name:        "missing dbname",
			configFile:  "database:\n  host: localhost\n",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.configFile), 0600))

			cfg, err := LoadSweeperConfig(configFile, t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "db.internal",
				Port:     6432,
				User:     "ambassador",
				Password: "p@ssw0rd!",
				DBName:   "ambassador",
				SSLMode:  "disable",
			},
			expected: "host=db.internal port=6432 user=ambassador password=p@ssw0rd! dbname=ambassador sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	require.NoError(t, os.MkdirAll(envDir, 0750))

	envVars := map[string]string{
		"AMBASSADOR_DEBUG":                       "true",
		"AMBASSADOR_DATABASE_HOST":               "env-host",
		"AMBASSADOR_DATABASE_PORT":               "3306",
		"AMBASSADOR_DATABASE_DBNAME":             "env-db",
		"AMBASSADOR_PROGRAM_CLAIM_TRIPLER_LIMIT": "20",
	}
	envContent := ""
	for k, v := range envVars {
		envContent += k + "=" + v + "\n"
		key := k
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600))

	// Per-service local file overrides the shared one
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env.api.local"), []byte("AMBASSADOR_DATABASE_DBNAME=api-db\n"), 0600))

	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
database:
  host: file-host
  port: 5432
  dbname: file-db
`
	require.NoError(t, os.WriteFile(configPath, []byte(configFile), 0600))

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "api-db", cfg.Database.DBName)
	assert.Equal(t, 20, cfg.Program.ClaimTriplerLimit)
}
