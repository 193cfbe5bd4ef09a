package main

import (
	"fmt"
	"os"

	"github.com/kilianp07/rota/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
