package main

import (
	"context"
	"log"
	"os"

	"github.com/parkit-app/parkit-go/internal/buildinfo"
	"github.com/parkit-app/parkit-go/internal/cli"
	"github.com/parkit-app/parkit-go/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
