package main

import (
	"os"

	"github.com/alimgiray/repolens/cmd/repolens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
