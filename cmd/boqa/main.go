package main

import (
	"os"

	"github.com/happyhackingspace/boqa/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.New(version).Run())
}
