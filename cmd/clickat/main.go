package main

import (
	"os"

	"clickat/cmd/clickat/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
