package app

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/pkg/utils"
)

// Config holds process-wide settings. Values default from the environment;
// an optional YAML file named by CONFIG_FILE can override them, so a
// deployment can ship one config file instead of a long env var list.
type Config struct {
	Port string `yaml:"port"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port: utils.GetEnv("PORT", "8080", log),
	}

	path := utils.GetEnv("CONFIG_FILE", "", log)
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to read config file, using environment defaults", "path", path, "error", err)
		}
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Warn("failed to parse config file, using environment defaults", "path", path, "error", err)
	}
	return cfg
}
