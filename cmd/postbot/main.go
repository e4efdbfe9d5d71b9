// Command postbot runs the movie posting bot.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/m3rciful/postbot/core/buildinfo"
	"github.com/m3rciful/postbot/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (overrides CONFIG_PATH)")
	version := flag.Bool("version", false, "print build information and exit")
	flag.Parse()

	if *version {
		fmt.Printf("postbot %s (%s) %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}
	if *configPath != "" {
		if err := os.Setenv("CONFIG_PATH", *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "postbot: %v\n", err)
			os.Exit(1)
		}
	}

	if err := app.Run("config.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "postbot: %v\n", err)
		os.Exit(1)
	}
}
