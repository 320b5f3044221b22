package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvFileEnv names the variable that points at a dotenv file. Without it
// ".env" in the working directory is tried.
const EnvFileEnv = "ENV_FILE"

// parseEnv loads the dotenv file into the process environment (existing
// variables win) and overlays variables onto config. Unset variables leave
// the current value alone. PORT is accepted as a shorthand for HTTP_ADDR.
func parseEnv(config *Config) error {
	if err := loadDotenv(); err != nil {
		return err
	}

	if err := env.Parse(config); err != nil {
		return err
	}

	if _, ok := os.LookupEnv("HTTP_ADDR"); !ok {
		if port := os.Getenv("PORT"); port != "" {
			config.HTTPAddr = ":" + port
		}
	}

	return nil
}

func loadDotenv() error {
	path, explicit := os.LookupEnv(EnvFileEnv)
	if !explicit || path == "" {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
