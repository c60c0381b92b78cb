package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. Values are read
// by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Workout  WorkoutConfig  `mapstructure:"workout"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig holds the secret used to validate bearer tokens. Tokens are
// issued by the external auth providers, never by this service.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FormatJSON bool   `mapstructure:"format_json"`
}

// WorkoutConfig tunes the session store.
type WorkoutConfig struct {
	// DefaultSets is how many blank sets a newly added exercise gets.
	DefaultSets int `mapstructure:"default_sets"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// nested keys map to env vars: server.address -> SERVER_ADDRESS
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "kyx_gym")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format_json", false)
	viper.SetDefault("workout.default_sets", 3)

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// rely on defaults and env vars when no file is present
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
