package main

import (
	"os"

	"github.com/skillhub-dev/skillhub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
