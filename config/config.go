// Package config - Environment configuration for the classification function.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment keys read by Load.
const (
	KeyEndpoint         = "APPWRITE_ENDPOINT"
	KeyProjectID        = "APPWRITE_PROJECT_ID"
	KeyAPIKey           = "APPWRITE_API_KEY"
	KeyBucketID         = "BUCKET_ID"
	KeyDatabaseID       = "DATABASE_ID"
	KeyCollectionID     = "COLLECTION_ID"
	KeyModelPath        = "MODEL_PATH"
	KeyModelBucketID    = "MODEL_BUCKET_ID"
	KeyModelFileID      = "MODEL_FILE_ID"
	KeyModelCacheDir    = "MODEL_CACHE_DIR"
	KeyONNXRuntimeLib   = "ONNXRUNTIME_LIB"
	KeyHTTPTimeout      = "HTTP_TIMEOUT"
	KeyLookupTimeout    = "LOOKUP_TIMEOUT"
	KeyRedisAddr        = "REDIS_ADDR"
	KeyRedisPassword    = "REDIS_PASSWORD"
	KeyRedisDB          = "REDIS_DB"
	KeyMetadataCacheTTL = "METADATA_CACHE_TTL"
	KeyLogLevel         = "LOG_LEVEL"
	KeyPort             = "PORT"
)

// ErrNoModelSource is returned when neither a local model path nor a remote
// bucket/file pair is configured.
var ErrNoModelSource = errors.New(
	"no valid model source provided: set MODEL_PATH or both MODEL_BUCKET_ID and MODEL_FILE_ID",
)

// MissingError lists required environment variables that are unset.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	if len(e.Keys) == 1 {
		return fmt.Sprintf("Missing required environment variable: %s", e.Keys[0])
	}
	return fmt.Sprintf("Missing required environment variables: %s", strings.Join(e.Keys, ", "))
}

// Config holds every value the function reads from its environment.
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Model    ModelConfig    `mapstructure:"model"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
}

// BackendConfig identifies the backend-as-a-service project.
type BackendConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	ProjectID string        `mapstructure:"project_id"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StorageConfig identifies where uploaded images live.
type StorageConfig struct {
	BucketID string `mapstructure:"bucket_id"`
}

// ModelConfig describes where the classifier artifact comes from.
type ModelConfig struct {
	// Path is a bundled model on local disk.
	Path string `mapstructure:"path"`
	// BucketID and FileID locate the model in backend storage.
	BucketID string `mapstructure:"bucket_id"`
	FileID   string `mapstructure:"file_id"`
	// CacheDir is scratch storage used for warm starts.
	CacheDir string `mapstructure:"cache_dir"`
	// RuntimeLib overrides the ONNX Runtime shared library path.
	RuntimeLib string `mapstructure:"runtime_lib"`
}

// MetadataConfig identifies the care-symbol document collection.
type MetadataConfig struct {
	DatabaseID    string        `mapstructure:"database_id"`
	CollectionID  string        `mapstructure:"collection_id"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
}

// RedisConfig configures the optional metadata cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the local HTTP host and logging.
type ServerConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// Load reads the configuration from the process environment.
//
// Load never fails on missing values; call Validate at invocation start so a
// misconfigured deployment reports the problem in its response.
//
// Returns:
//   - *Config: The loaded configuration.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyModelCacheDir, os.TempDir())
	v.SetDefault(KeyHTTPTimeout, 30*time.Second)
	v.SetDefault(KeyLookupTimeout, 10*time.Second)
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyMetadataCacheTTL, time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyPort, "8080")

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
//
// Arguments:
//   - v: The viper instance holding the environment keys.
//
// Returns:
//   - *Config: The configuration.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Backend: BackendConfig{
			Endpoint:  strings.TrimRight(v.GetString(KeyEndpoint), "/"),
			ProjectID: v.GetString(KeyProjectID),
			APIKey:    v.GetString(KeyAPIKey),
			Timeout:   v.GetDuration(KeyHTTPTimeout),
		},
		Storage: StorageConfig{
			BucketID: v.GetString(KeyBucketID),
		},
		Model: ModelConfig{
			Path:       v.GetString(KeyModelPath),
			BucketID:   v.GetString(KeyModelBucketID),
			FileID:     v.GetString(KeyModelFileID),
			CacheDir:   v.GetString(KeyModelCacheDir),
			RuntimeLib: v.GetString(KeyONNXRuntimeLib),
		},
		Metadata: MetadataConfig{
			DatabaseID:    v.GetString(KeyDatabaseID),
			CollectionID:  v.GetString(KeyCollectionID),
			LookupTimeout: v.GetDuration(KeyLookupTimeout),
		},
		Redis: RedisConfig{
			Addr:     v.GetString(KeyRedisAddr),
			Password: v.GetString(KeyRedisPassword),
			DB:       v.GetInt(KeyRedisDB),
			TTL:      v.GetDuration(KeyMetadataCacheTTL),
		},
		Server: ServerConfig{
			Port:     v.GetString(KeyPort),
			LogLevel: v.GetString(KeyLogLevel),
		},
	}
}

// Validate checks that every required value is present and that at least one
// model source is configured.
//
// Returns:
//   - error: A *MissingError, ErrNoModelSource, or nil.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyEndpoint, c.Backend.Endpoint},
		{KeyProjectID, c.Backend.ProjectID},
		{KeyAPIKey, c.Backend.APIKey},
		{KeyBucketID, c.Storage.BucketID},
		{KeyDatabaseID, c.Metadata.DatabaseID},
		{KeyCollectionID, c.Metadata.CollectionID},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	if !c.Model.HasSource() {
		return ErrNoModelSource
	}
	return nil
}

// HasSource reports whether a local path or a complete remote pair is set.
func (m ModelConfig) HasSource() bool {
	return m.Path != "" || (m.BucketID != "" && m.FileID != "")
}
