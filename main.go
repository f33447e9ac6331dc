package main

import (
	"os"

	"github.com/ruslanmv/jobcraft/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
