package main

import (
	"flag"
	"fmt"
	"os"
	"seatcheck/internal/di"
	"seatcheck/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config/config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "verbose logging mirrored to stdout")
	flag.Parse()

	app, cleanup, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seatcheck: %v\n", err)
		os.Exit(1)
	}
	cleanup()
	app.Logger.Close()
}
