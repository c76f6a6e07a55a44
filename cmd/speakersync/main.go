package main

import (
	"os"

	"github.com/reinocast/speakersync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
