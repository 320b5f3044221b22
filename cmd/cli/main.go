package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/pennyplan/internal/client/cli"
	"github.com/dmitrijs2005/pennyplan/internal/client/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app := cli.NewApp(cfg)
	os.Exit(app.Run(ctx, os.Args[1:]))

}
