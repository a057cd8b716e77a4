package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/encoding/json"
	"github.com/positionledger/positionledger/signaler"
	"github.com/urfave/cli/v2"
)

var (
	configFile string
	verbose    bool
)

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

func loadConfig() (*config.Config, error) {
	var cfg config.Config
	if err := cfg.LoadConfig(configFile); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "ledgercli"
	app.EnableBashCompletion = true
	app.Usage = "command line interface for replaying and inspecting futures positions"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       config.DefaultFilePath(),
			Usage:       "the config file holding contract specifications and prices",
			Destination: &configFile,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "include the replay trace of every position",
			Destination: &verbose,
		},
	}
	app.Commands = []*cli.Command{
		replayCommand,
		positionsCommand,
		realisedCommand,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Capture cancel for interrupt
		<-signaler.WaitForInterrupt()
		cancel()
		fmt.Println("ledgercli interrupted")
		os.Exit(1)
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
