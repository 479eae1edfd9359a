package main

import (
	"fmt"
	"os"

	"cnstock/internal/cli"
	"cnstock/internal/config"
	"cnstock/internal/logging"
)

func main() {
	configDir := cli.ConfigDirFromArgs(os.Args[1:])

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(cfg.Log)

	app := cli.NewApp(cfg, configDir, logger)
	defer app.Close()

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}
