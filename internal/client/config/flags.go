package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   API root URL
//	-w int      request timeout in seconds
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "API root URL")
	timeout := fs.Int("w", int(cfg.Timeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-a", "-w"})); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			cfg.Timeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
