package main

import (
	"os"

	"github.com/sunnyysetia/patrolsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
