package main

import (
	"os"

	"github.com/conneroisu/formify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
