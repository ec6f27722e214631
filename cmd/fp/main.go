package main

import (
	"os"

	"github.com/bnema/freepackages/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
