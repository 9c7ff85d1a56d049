package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := t.TempDir()

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	err := os.Mkdir(tempConfigsSubDir, 0755)
	require.NoError(t, err)

	testAppName := "TestFund"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nSTORE_DRIVER=sqlite\nSQLITE_PATH=fund.db\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	err = os.WriteFile(envFilePath, []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "fund.db", cfg.SQLite.Path)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "donation_events", cfg.Kafka.DonationTopic)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 8, cfg.Distribution.WorkerPoolSize)
	assert.Equal(t, "UZS", cfg.Distribution.DefaultCurrency)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfgWithName)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")

	cfg, err := LoadConfig("missing_config_file")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER must be postgres or sqlite")
}

func TestLoadConfig_EmptyMongoURIDisablesJournal(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	cfg, err := LoadConfig("missing_config_file")
	require.NoError(t, err)
	assert.Empty(t, cfg.MongoDB.URI)
	assert.Equal(t, "eco_fund", cfg.MongoDB.Database)
}

func TestConfig_Validate_HappyPath(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	err := cfg.validate()
	assert.NoError(t, err, "Default config should be valid")
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	cfg.Server.Port = 0
	cfg.Postgres.URL = ""
	cfg.Distribution.WorkerPoolSize = 0
	cfg.Reconciler.MaxAttempts = -1

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT must be greater than 0")
	assert.Contains(t, err.Error(), "POSTGRES_URL is required")
	assert.Contains(t, err.Error(), "DISTRIBUTION_WORKER_POOL_SIZE must be greater than 0")
	assert.Contains(t, err.Error(), "RECONCILER_MAX_ATTEMPTS must be greater than 0")
}

func TestConfig_Validate_JournalDisabled(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	cfg.MongoDB = MongoDBConfig{}

	assert.NoError(t, cfg.validate())
}
