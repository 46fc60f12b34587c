package main

import (
	"os"

	"github.com/sog4be/sakurs-go/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
