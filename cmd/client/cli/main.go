package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/wellkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/wellkeeper/internal/client/cli"
	"github.com/dmitrijs2005/wellkeeper/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	app.Run(context.Background())

}
