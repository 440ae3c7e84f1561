package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string   `yaml:"log-level" env-default:"info"`
	TCPPort  string   `yaml:"tcp-port" env-default:"9000"`
	HTTPPort string   `yaml:"http-port" env-default:"9090"`
	Redis    Redis    `yaml:"redis"`
	Admins   []string `yaml:"admins" env-default:""`
}

type Redis struct {
	Host string `yaml:"host" env-default:""`
	Port string `yaml:"port" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// GetRedisAddr - returns host:port, or an empty string when redis is not configured.
func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
