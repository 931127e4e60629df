package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophdrop/internal/client/cli"
	"github.com/dmitrijs2005/gophdrop/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
