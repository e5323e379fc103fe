package main

import (
	"os"

	"github.com/jakoblorz/release-trucker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
