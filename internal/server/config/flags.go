package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-m", "-s", "-t", "-l", "-f"}

// parseFlags overlays command-line flags from args onto config. Flags that
// belong to other flag sets (such as -c) are ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP listen address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "Postgres connection string")
	fs.StringVar(&config.StoreDriver, "m", config.StoreDriver, "Store driver: postgres, mongo or memory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "Token signing secret")
	validity := fs.Int("t", int(config.TokenValidityDuration/time.Minute), "Token validity in minutes")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "Log level")
	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "Frontend base URL")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*validity) * time.Minute
		}
	})
	return nil
}
