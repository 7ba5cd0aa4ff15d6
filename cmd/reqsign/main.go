package main

import (
	"os"

	"github.com/reqsign/reqsign/cmd/reqsign/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
