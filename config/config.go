package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"playtime-cli/store"
)

// Config is assembled from, in order of precedence: environment variables,
// the optional YAML file named by PLAYTIME_CONFIG, and saved credentials.
type Config struct {
	APIBaseURL string `yaml:"api_base_url" env:"PLAYTIME_API_URL"`
	Token      string `yaml:"token" env:"PLAYTIME_TOKEN"`
	LogFile    string `yaml:"log_file" env:"PLAYTIME_LOG_FILE"`
	LogFormat  string `yaml:"log_format" env:"PLAYTIME_LOG_FORMAT" env-default:"json"`
}

func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("PLAYTIME_CONFIG"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if cfg.APIBaseURL == "" || cfg.Token == "" {
		creds, err := store.LoadCredentials()
		if err != nil {
			return Config{}, fmt.Errorf("load saved credentials: %w", err)
		}
		if cfg.APIBaseURL == "" {
			cfg.APIBaseURL = creds.APIBaseURL
		}
		if cfg.Token == "" {
			cfg.Token = creds.Token
		}
	}

	return cfg, nil
}
