package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
// It includes the environment type, telegram credentials, the admin API
// endpoint, database configuration and the monitoring server port.
type Config struct {
	Env           string         `yaml:"env"`            // Env is the current environment: local, dev, prod.
	Token         string         `yaml:"token"`          // Token is an unique telegram bot token
	PollerTimeout time.Duration  `yaml:"poller_timeout"` // PollerTimeout its a time which need to close telegram bot poller
	API           APIConfig      `yaml:"api"`            // API holds the remote admin API configuration
	Database      PostgresConfig `yaml:"postgres"`       // Database holds the postgres database configuration
	ServerPort    int            `yaml:"server_port"`    // ServerPort is the port for the metrics/health server.
}

// APIConfig holds the connection details for the remote admin API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"` // BaseURL is the admin API root, e.g. http://host/api/v1.
	Timeout time.Duration `yaml:"timeout"`  // Timeout is the per-request HTTP timeout.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// MustLoad loads the configuration from a YAML file and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	defPollerTimeout := 10
	defAPITimeout := 30
	defServerPort := 8080

	viper.SetDefault("env", "production")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("telegram.timeout", time.Duration(defPollerTimeout*int(time.Second)))
	viper.SetDefault("api.timeout", time.Duration(defAPITimeout*int(time.Second)))
	viper.SetDefault("server.port", defServerPort)

	return &Config{
		Env:           viper.GetString("env"),
		Token:         viper.GetString("telegram.token"),
		PollerTimeout: viper.GetDuration("telegram.timeout"),
		API: APIConfig{
			BaseURL: viper.GetString("api.base_url"),
			Timeout: viper.GetDuration("api.timeout"),
		},
		Database: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetString("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			Name:     viper.GetString("postgres.db_name"),
		},
		ServerPort: viper.GetInt("server.port"),
	}
}
