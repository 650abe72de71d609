package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListingFile string        `envconfig:"LISTING_FILE" default:""`
	VWPWindow   time.Duration `envconfig:"VWP_WINDOW" default:"15m"`

	BatchSize int `envconfig:"BATCH_SIZE" default:"1000"`
	Workers   int `envconfig:"WORKERS" default:"4"`

	APIHost         string        `envconfig:"API_HOST" default:"0.0.0.0"`
	APIPort         string        `envconfig:"API_PORT" default:"8000"`
	APIReadTimeout  time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	APIWriteTimeout time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"10s"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"100"`

	AdminUser     string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:""`
	DownloadDir   string `envconfig:"DOWNLOAD_DIR" default:"data"`

	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

// LoadE reads an optional .env file and then the process environment.
// Variables already set in the environment win over the .env file.
func LoadE(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.VWPWindow <= 0 {
		return nil, errors.New("VWP_WINDOW must be positive")
	}
	return &cfg, nil
}

func Load() *Config {
	cfg, err := LoadE()
	if err != nil {
		panic(err)
	}
	return cfg
}
