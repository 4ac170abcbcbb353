package main

import (
	"fmt"
	"os"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/cmd/masski/cli"
)

// Set via -ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
