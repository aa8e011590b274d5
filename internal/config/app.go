package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type Storage struct {
	BaseDir       string `mapstructure:"base_dir"`
	CurrentDir    string `mapstructure:"current_dir"`
	HistoricalDir string `mapstructure:"historical_dir"`
}

type RatesAPI struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Updater struct {
	PaceMillis    int `mapstructure:"pace_millis"`
	BootstrapDays int `mapstructure:"bootstrap_days"`
	RetryMax      int `mapstructure:"retry_max"`
}

type Scheduler struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

type Resolver struct {
	DefaultRate float64 `mapstructure:"default_rate"`
	CacheSize   int64   `mapstructure:"cache_size"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	Storage    Storage    `mapstructure:"storage"`
	RatesAPI   RatesAPI   `mapstructure:"rates_api"`
	Updater    Updater    `mapstructure:"updater"`
	Scheduler  Scheduler  `mapstructure:"scheduler"`
	Resolver   Resolver   `mapstructure:"resolver"`
	Logging    Logging    `mapstructure:"logging"`
}

func Init() (*AppConfig, error) {
	var cfg AppConfig

	// .env and config.yaml are both optional; defaults plus env vars are
	// enough to run.
	_ = godotenv.Load()

	viper.SetConfigFile("config.yaml")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	viper.SetDefault("http_server.port", "8080")
	viper.SetDefault("storage.base_dir", "data")
	viper.SetDefault("rates_api.base_url", "https://api.frankfurter.app")
	viper.SetDefault("rates_api.timeout_seconds", 10)
	viper.SetDefault("updater.pace_millis", 1000)
	viper.SetDefault("updater.bootstrap_days", 30)
	viper.SetDefault("updater.retry_max", 0)
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.cron", "0 6 * * *")
	viper.SetDefault("resolver.default_rate", 150.0)
	viper.SetDefault("resolver.cache_size", 4096)
	viper.SetDefault("logging.level", "info")

	_ = viper.BindEnv("http_server.port", "HTTP_PORT")
	_ = viper.BindEnv("storage.base_dir", "DATA_DIR")
	_ = viper.BindEnv("rates_api.base_url", "RATES_API_BASE_URL")
	_ = viper.BindEnv("rates_api.timeout_seconds", "RATES_API_TIMEOUT_SECONDS")
	_ = viper.BindEnv("updater.pace_millis", "FETCH_PACE_MS")
	_ = viper.BindEnv("updater.bootstrap_days", "BOOTSTRAP_DAYS")
	_ = viper.BindEnv("updater.retry_max", "FETCH_RETRY_MAX")
	_ = viper.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = viper.BindEnv("scheduler.cron", "SCHEDULE_CRON")
	_ = viper.BindEnv("resolver.default_rate", "DEFAULT_RATE")
	_ = viper.BindEnv("resolver.cache_size", "RATE_CACHE_SIZE")
	_ = viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
