package main

import (
	"os"

	"github.com/pterodactyl/sandboxfs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
