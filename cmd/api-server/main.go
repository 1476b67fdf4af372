package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goalstake/goalstake/pkg/app/api"
	"github.com/goalstake/goalstake/pkg/config"
)

var (
	configPath  = flag.String("config", "config.yaml", "Path to configuration file")
	printConfig = flag.Bool("print-config", false, "Print the effective configuration and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadAPIServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		dump, err := cfg.Dump()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(dump)
		return
	}

	if err := api.NewServer(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "API server exited with error: %v\n", err)
		os.Exit(1)
	}
}
